//go:build !unix

package app

// ActivateRunning always reports false: there is no activation signal here.
func ActivateRunning(pidFile string) (bool, error) {
	return false, nil
}
