package storage

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const objectScheme = "s3"

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,62}$`)

type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return objectScheme + "://" + l.Bucket + "/" + l.Key
}

// Ext returns the lower-cased extension of the object key.
func (l Location) Ext() string {
	return strings.ToLower(path.Ext(l.Key))
}

func IsObjectURL(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), objectScheme+"://")
}

// ParseLocation parses s3://bucket/key.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if !IsObjectURL(raw) {
		return Location{}, fmt.Errorf("object url must start with %s://: %q", objectScheme, raw)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse object url: %w", err)
	}
	if !bucketPattern.MatchString(parsed.Host) {
		return Location{}, fmt.Errorf("invalid bucket: %q", parsed.Host)
	}
	key := strings.TrimPrefix(parsed.Path, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return Location{}, fmt.Errorf("object key is required: %q", raw)
	}
	return Location{Bucket: parsed.Host, Key: key}, nil
}
