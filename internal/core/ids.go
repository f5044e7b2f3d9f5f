package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PrefixMember  = "MEM"
	PrefixPayment = "PAY"
	PrefixExpense = "EXP"
)

// NewID returns a type-prefixed identifier built from the creation time and a
// short random suffix. It is unique in practice within one ledger only and
// must not be used as a distributed key.
func NewID(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
	return prefix + strconv.FormatInt(now.UnixMilli(), 10) + suffix
}
