// Command gangway brings compose-file environments up and down outside
// a test run, using the same stage configuration the fixture API uses.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
