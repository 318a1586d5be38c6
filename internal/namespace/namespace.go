// Package namespace derives the isolation key that scopes every
// vector-index operation to one (client, document) pair.
package namespace

import (
	"path/filepath"
	"strings"
)

// Derive returns "{clientId}_{documentBaseName}" with the document's
// extension stripped. Two pairs collide only when both the client id
// and the base name collide, which callers are expected to avoid by
// picking distinct names.
func Derive(clientID, fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return clientID + "_" + base
}
