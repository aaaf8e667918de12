package process

import (
	"fmt"
	"regexp"
	"time"
)

// Process numbers look like ER-2603-00042: the year-month bucket followed
// by a five digit counter that resets monthly. Uniqueness comes from the
// store's atomic counter upsert; this file only deals with formatting.
var processNumberPattern = regexp.MustCompile(`^ER-\d{2}(0[1-9]|1[0-2])-\d{5}$`)

func IsValidProcessNumber(s string) bool {
	return processNumberPattern.MatchString(s)
}

// NumberBucket returns the YYMM bucket key for the given time.
func NumberBucket(t time.Time) string {
	return t.Format("0601")
}

// FormatProcessNumber renders the bucket and sequence as a process number.
func FormatProcessNumber(bucket string, seq int64) string {
	return fmt.Sprintf("ER-%s-%05d", bucket, seq)
}
