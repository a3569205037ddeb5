// Command librarydesk runs the library management web application and its maintenance tasks.
package main

import (
	"os"
	_ "time/tzdata" // LIBRARY_TIMEZONE works without a system zone database
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
