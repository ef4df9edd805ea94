package utils

import (
	// Go Internal Packages
	"net/url"
	"strings"
)

// Partition is one hive-style key=value segment of an object key.
type Partition struct {
	Name  string
	Value string
}

// PartitionPath renders name=value/ for use inside an object key.
func PartitionPath(name, value string) string {
	return name + "=" + url.PathEscape(value) + "/"
}

// ParsePartitions extracts the key=value segments of an object key in path order.
// URL-encoded segments (name%3Dvalue) are accepted.
func ParsePartitions(key string) []Partition {
	segs := strings.Split(key, "/")
	var parts []Partition
	for _, s := range segs[:len(segs)-1] {
		if dec, err := url.PathUnescape(s); err == nil {
			s = dec
		}
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			continue
		}
		parts = append(parts, Partition{Name: name, Value: value})
	}
	return parts
}

// PartitionValue returns the value of the named partition in key, or "".
func PartitionValue(key, name string) string {
	for _, p := range ParsePartitions(key) {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// JoinPrefix joins storage key fragments making sure every fragment but the last ends with /.
func JoinPrefix(parts ...string) string {
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(p)
		if i < len(parts)-1 && !strings.HasSuffix(p, "/") {
			b.WriteByte('/')
		}
	}
	return b.String()
}
