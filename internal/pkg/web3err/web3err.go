// Package web3err maps raw wallet and RPC errors to messages fit for the
// dashboard. Classification is substring-based because wallet providers do
// not expose stable error codes.
package web3err

import (
	"fmt"
	"strings"
)

// Classify returns a human-readable message for a wallet-interaction error.
// networkName is included where the message benefits from chain context.
func Classify(err error, networkName string) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "user denied"), strings.Contains(msg, "user rejected"):
		return "Transaction was cancelled by user"
	case strings.Contains(msg, "insufficient funds"):
		if networkName != "" {
			return fmt.Sprintf("Insufficient funds for transaction on %s", networkName)
		}
		return "Insufficient funds for transaction"
	case strings.Contains(msg, "nonce"):
		return "Transaction nonce conflict. Please retry."
	case strings.Contains(msg, "gas"):
		return "Gas estimation failed. The transaction may revert."
	case strings.Contains(msg, "network"):
		return "Network error occurred. Please check your connection."
	case strings.Contains(msg, "timeout"):
		return "Request timed out. Please try again."
	}
	return "An unexpected error occurred"
}
