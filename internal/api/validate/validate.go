package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-openapi/strfmt"
)

// archiveIDRx matches ids minted by the server: sess_<uuid> or manual-<uuid>.
var archiveIDRx = regexp.MustCompile(`^(sess_|manual-)[0-9a-fA-F-]{36}$`)

const (
	MaxDisplayName = 30
	MaxTextField   = 200
	MaxMemo        = 2000
)

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !strfmt.IsEmail(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// MaxLen limits v to limit characters (runes, not bytes).
func MaxLen(field, v string, limit int) error {
	if utf8.RuneCountInString(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// ArchiveID rejects anything that cannot be a server-minted archive id.
func ArchiveID(v string) error {
	if !archiveIDRx.MatchString(v) {
		return fmt.Errorf("invalid archive id")
	}
	return nil
}

// DisplayName checks a trimmed, non-empty display name.
func DisplayName(v string) error {
	return MaxLen("display_name", v, MaxDisplayName)
}

// PhotoDataURL accepts an empty value or a data:image/... URL no larger than maxBytes.
func PhotoDataURL(v string, maxBytes int) error {
	if v == "" {
		return nil
	}
	if !strings.HasPrefix(v, "data:image/") || !strings.Contains(v, ",") {
		return fmt.Errorf("photoDataUrl must be a data:image URL")
	}
	if maxBytes > 0 && len(v) > maxBytes {
		return fmt.Errorf("photoDataUrl exceeds %d bytes", maxBytes)
	}
	return nil
}

// -------- Request specific helpers ----------

// ManualEntry checks the free-text fields of a manual record.
func ManualEntry(teaName, teaType, origin, brand, photo string, maxPhotoBytes int) error {
	for _, f := range []struct {
		name, v string
	}{{"teaName", teaName}, {"teaType", teaType}, {"origin", origin}, {"brandOrPurchase", brand}} {
		if err := MaxLen(f.name, f.v, MaxTextField); err != nil {
			return err
		}
	}
	return PhotoDataURL(photo, maxPhotoBytes)
}

// SessionNote checks the note fields of a guided item.
func SessionNote(mood, memo, photo string, maxPhotoBytes int) error {
	if err := MaxLen("mood", mood, MaxTextField); err != nil {
		return err
	}
	if err := MaxLen("memo", memo, MaxMemo); err != nil {
		return err
	}
	return PhotoDataURL(photo, maxPhotoBytes)
}
