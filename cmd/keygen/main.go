// Command keygen manages the Ed25519 key pair a BAP signs its requests with.
//
//	keygen generate [-dir keys] [-force]
//	keygen show [-dir keys]
//	keygen sign [-dir keys] -subscriber id [-file payload.json] [-body]
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sage-x-project/sage-beckn-go/pkg/canonical"
	"github.com/sage-x-project/sage-beckn-go/pkg/keys"
	"github.com/sage-x-project/sage-beckn-go/pkg/signer"
	"github.com/sage-x-project/sage-beckn-go/pkg/version"
	"golang.org/x/term"
)

const defaultDir = "keys"

// selfCheckMessage is signed and verified by show to prove the stored pair matches
var selfCheckMessage = []byte("digest: SHA-256=47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	command := args[0]
	args = args[1:]

	var err error
	switch command {
	case "generate":
		err = generateCmd(args, stdout, stderr)
	case "show":
		err = showCmd(args, stdout, stderr)
	case "sign":
		err = signCmd(args, stdin, stdout, stderr)
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, version.Get())
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(stderr, paint(stderr, colorRed, "Error: ")+err.Error())
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "keygen - Beckn signing key tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  keygen generate [-dir keys] [-force]   - Generate a new Ed25519 key pair")
	fmt.Fprintln(w, "  keygen show [-dir keys]                - Display and check the public key")
	fmt.Fprintln(w, "  keygen sign -subscriber id [-file f]   - Print Digest and Authorization for a JSON payload")
	fmt.Fprintln(w, "  keygen version                         - Print version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'keygen <command> -h' for command-specific help")
}

func generateCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", defaultDir, "Key storage directory")
	force := fs.Bool("force", false, "Overwrite an existing key pair")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kp, err := keys.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	var opts []keys.PersistOption
	if *force {
		opts = append(opts, keys.WithOverwrite())
	}

	files, err := keys.Persist(kp, *dir, opts...)
	if err != nil {
		if errors.Is(err, keys.ErrKeyExists) {
			return fmt.Errorf("%w in %s (use -force to replace it; the registry entry must be updated too)", err, *dir)
		}
		return err
	}

	fmt.Fprintln(stdout, paint(stdout, colorGreen, "✓ Key pair generated"))
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "  Private key: %s\n", files.PrivateKey)
	fmt.Fprintf(stdout, "  Public key:  %s\n", files.PublicKey)
	fmt.Fprintf(stdout, "  Public key (base64): %s\n", files.PublicKeyB64)
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Register this signing_public_key with the Beckn registry:\n  %s\n", kp.PublicKeyBase64())
	return nil
}

func showCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", defaultDir, "Key storage directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kp, err := keys.Load(*dir)
	if err != nil {
		return err
	}

	pubB64 := kp.PublicKeyBase64()
	fmt.Fprintf(stdout, "Public key (base64): %s\n", pubB64)
	fmt.Fprintf(stdout, "Key id:              %s\n", kp.ID())
	fmt.Fprintln(stdout)

	files := keys.FilesIn(*dir)
	ok := true

	pemPub, err := keys.LoadPublicKey(*dir)
	switch {
	case err != nil:
		ok = false
		fmt.Fprintf(stdout, "  %s %s: %v\n", paint(stdout, colorRed, "✗"), files.PublicKey, err)
	case !bytes.Equal(pemPub, kp.RawPublicKey()):
		ok = false
		fmt.Fprintf(stdout, "  %s %s does not match the private key\n", paint(stdout, colorRed, "✗"), files.PublicKey)
	default:
		fmt.Fprintf(stdout, "  %s %s matches\n", paint(stdout, colorGreen, "✓"), files.PublicKey)
	}

	b64, err := os.ReadFile(files.PublicKeyB64)
	switch {
	case err != nil:
		ok = false
		fmt.Fprintf(stdout, "  %s %s: %v\n", paint(stdout, colorRed, "✗"), files.PublicKeyB64, err)
	case string(bytes.TrimSpace(b64)) != pubB64:
		ok = false
		fmt.Fprintf(stdout, "  %s %s does not match the private key\n", paint(stdout, colorRed, "✗"), files.PublicKeyB64)
	default:
		fmt.Fprintf(stdout, "  %s %s matches\n", paint(stdout, colorGreen, "✓"), files.PublicKeyB64)
	}

	sig, err := kp.Sign(selfCheckMessage)
	if err == nil {
		err = kp.Verify(selfCheckMessage, sig)
	}
	if err != nil {
		ok = false
		fmt.Fprintf(stdout, "  %s sign/verify self-check: %v\n", paint(stdout, colorRed, "✗"), err)
	} else {
		fmt.Fprintf(stdout, "  %s sign/verify self-check\n", paint(stdout, colorGreen, "✓"))
	}

	if !ok {
		return fmt.Errorf("key files in %s are inconsistent", *dir)
	}
	return nil
}

func signCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", defaultDir, "Key storage directory")
	subscriber := fs.String("subscriber", "", "Subscriber id used as keyId (required)")
	file := fs.String("file", "", "JSON payload file (default: stdin)")
	showBody := fs.Bool("body", false, "Also print the canonical body that was digested")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subscriber == "" {
		return fmt.Errorf("-subscriber is required")
	}

	var (
		data []byte
		err  error
	)
	if *file != "" {
		data, err = os.ReadFile(*file)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	payload, err := canonical.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	kp, err := keys.Load(*dir)
	if err != nil {
		return err
	}

	headers, err := signer.NewDefaultBecknSigner().CreateHeaders(context.Background(), payload, *subscriber, kp)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s: %s\n", signer.HeaderDigest, headers.Digest)
	fmt.Fprintf(stdout, "%s: %s\n", signer.HeaderAuthorization, headers.Authorization)
	if *showBody {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, string(headers.Body))
	}
	return nil
}

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

// paint colours s only when w is a terminal
func paint(w io.Writer, color, s string) string {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return s
	}
	return color + s + colorReset
}
