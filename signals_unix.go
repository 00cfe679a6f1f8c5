//go:build unix

package main

import (
	"os"
	"syscall"
)

// SIGUSR1 flips between Active and Passthrough.
var toggleSignals = []os.Signal{syscall.SIGUSR1}

const toggleHint = "kill -USR1 <pid>"
