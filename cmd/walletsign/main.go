// Command walletsign signs challenge messages the way a browser wallet does.
// It exists for local development and smoke tests against walletauth.
//
//	walletsign -key 0xac09... < challenge.txt
//	walletsign -key 0xac09... -server http://localhost:9000
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/layer-3/walletauth/internal/eth"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Getenv); err != nil {
		fmt.Fprintln(os.Stderr, "walletsign:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, getenv func(string) string) error {
	fs := flag.NewFlagSet("walletsign", flag.ContinueOnError)
	fs.SetOutput(stdout)

	key := fs.String("key", getenv("WALLET_PRIVATE_KEY"), "hex encoded secp256k1 private key (default $WALLET_PRIVATE_KEY)")
	messageFile := fs.String("message", "", "file holding the message to sign (default stdin)")
	server := fs.String("server", "", "walletauth base URL; request a challenge, sign it and log in")
	showAddress := fs.Bool("address", false, "print the address of the key and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *key == "" {
		return errors.New("a private key is required")
	}

	signer, err := eth.NewKeySignerFromHex(*key)
	if err != nil {
		return err
	}

	switch {
	case *showAddress:
		_, err = fmt.Fprintln(stdout, signer.Address().Hex())
		return err
	case *server != "":
		return login(&http.Client{Timeout: 10 * time.Second}, strings.TrimRight(*server, "/"), signer, stdout)
	}

	message, err := readMessage(*messageFile, stdin)
	if err != nil {
		return err
	}

	sig, err := signer.SignText(message)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, sig)
	return err
}

func readMessage(path string, stdin io.Reader) (string, error) {
	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open message: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read message: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("empty message")
	}
	return string(data), nil
}

// login runs the full challenge and login exchange and prints the session cookies
func login(client *http.Client, baseURL string, signer eth.Signer, stdout io.Writer) error {
	address := signer.Address().Hex()

	challenge, err := post(client, baseURL+"/auth/challenge", map[string]string{"address": address})
	if err != nil {
		return fmt.Errorf("request challenge: %w", err)
	}
	message, err := io.ReadAll(challenge.Body)
	challenge.Body.Close()
	if err != nil {
		return fmt.Errorf("read challenge: %w", err)
	}

	sig, err := signer.SignText(string(message))
	if err != nil {
		return err
	}

	resp, err := post(client, baseURL+"/auth/login", map[string]string{"address": address, "signature": sig})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		fmt.Fprintf(stdout, "%s=%s\n", c.Name, c.Value)
	}
	return nil
}

func post(client *http.Client, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
