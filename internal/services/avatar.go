package services

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// Gravatar display parameters for comment avatars.
const (
	avatarSize    = 100
	avatarDefault = "retro"
)

// AvatarURL derives the gravatar URL for an email address. Gravatar
// addresses hashes of the trimmed, lowercased email; the email itself
// never leaves the server.
func AvatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf(
		"https://www.gravatar.com/avatar/%s?s=%d&d=%s",
		hex.EncodeToString(sum[:]),
		avatarSize,
		avatarDefault,
	)
}
