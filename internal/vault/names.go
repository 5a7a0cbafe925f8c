package vault

import (
	"fmt"
	"strings"
)

// checkKey rejects host IDs and snapshot names that could escape their
// directory or prefix.
func checkKey(kind, s string) error {
	if s == "" {
		return fmt.Errorf("%s must not be empty", kind)
	}
	if s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("invalid %s: %q", kind, s)
	}
	return nil
}

func checkHostAndName(hostID, name string) error {
	if err := checkKey("host id", hostID); err != nil {
		return err
	}
	return checkKey("snapshot name", name)
}
