// Package terminal reads passwords and confirmations from the user.
package terminal
