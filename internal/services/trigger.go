package services

import (
	"strconv"
	"strings"

	"github.com/deploymenttheory/go-sysup/internal/sysup"
)

// TriggerValue is the only trigger payload that starts an update
const TriggerValue = 1

// ParseTrigger parses a trigger payload the way the kernel's kstrtoint
// does for base 10: an optional sign, decimal digits, and at most one
// trailing newline. Only a value of TriggerValue is accepted.
func ParseTrigger(payload []byte) error {
	text := string(payload)
	text = strings.TrimSuffix(text, "\n")

	value, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return sysup.Errorf(sysup.KindRequestInvalid, "parse trigger", "payload %q is not an integer", payload)
	}
	if value != TriggerValue {
		return sysup.Errorf(sysup.KindRequestInvalid, "parse trigger", "trigger value %d, want %d", value, TriggerValue)
	}
	return nil
}
