package backup

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"

	xssh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// newHostKeyCallback verifies remote host keys against a known_hosts
// file. With trust-on-first-use enabled, an unknown host's key is
// recorded on first contact; a changed key is always rejected.
func newHostKeyCallback(knownHostsPath string, trustOnFirstUse bool) (xssh.HostKeyCallback, error) {
	if err := ensureKnownHostsFile(knownHostsPath); err != nil {
		return nil, err
	}

	verify, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts: %w", err)
	}

	return func(hostname string, remote net.Addr, key xssh.PublicKey) error {
		err := verify(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) && len(keyErr.Want) == 0 && trustOnFirstUse {
			if appendErr := appendKnownHost(knownHostsPath, hostname, key); appendErr != nil {
				return fmt.Errorf("failed to record host key: %w", appendErr)
			}
			log.Printf("[SFTPDest] Recorded new host key for %s", hostname)
			return nil
		}

		return err
	}, nil
}

func ensureKnownHostsFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	return file.Close()
}

func appendKnownHost(path, hostname string, key xssh.PublicKey) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	line := knownhosts.Line([]string{hostname}, key)
	if _, err := fmt.Fprintln(file, line); err != nil {
		return err
	}

	return file.Close()
}
