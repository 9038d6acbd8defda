// Package chem holds the chemistry helpers the importer needs to resolve
// molecules and solvents.
package chem

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidMolfile is returned for molfiles without a connection table.
var ErrInvalidMolfile = errors.New("invalid molfile")

const molfileHeaderLines = 3

// Fingerprint identifies a structure by hashing the molfile connection
// table. The three header lines (name, program, comment) are ignored so the
// same structure exported by different tools maps to one molecule.
func Fingerprint(molfile string) (string, error) {
	normalised := strings.ReplaceAll(molfile, "\r\n", "\n")
	lines := strings.Split(normalised, "\n")
	if len(lines) <= molfileHeaderLines {
		return "", ErrInvalidMolfile
	}
	body := lines[molfileHeaderLines:]
	for i := range body {
		body[i] = strings.TrimRight(body[i], " \t\r")
	}
	for len(body) > 0 && body[len(body)-1] == "" {
		body = body[:len(body)-1]
	}
	if len(body) == 0 {
		return "", ErrInvalidMolfile
	}
	sum := sha256.Sum256([]byte(strings.Join(body, "\n")))
	return hex.EncodeToString(sum[:]), nil
}
