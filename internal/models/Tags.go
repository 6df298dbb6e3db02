package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidTag is returned when a tag or legacy category value has the wrong shape.
var ErrInvalidTag = errors.New("invalid category value")

// maxCategoryCode keeps a legacy category code within the tag column width.
const maxCategoryCode = 999_999_999

// Tags are the three optional categorical codes of a route.
type Tags struct {
	Region    *string `json:"region_id"`
	RoadType  *string `json:"road_type_id"`
	Transport *string `json:"transport_id"`
}

// Merge fills the unset tags of t from fallback.
func (t Tags) Merge(fallback Tags) Tags {
	if t.Region == nil {
		t.Region = fallback.Region
	}
	if t.RoadType == nil {
		t.RoadType = fallback.RoadType
	}
	if t.Transport == nil {
		t.Transport = fallback.Transport
	}
	return t
}

// ParseTag reads a tag sent either as a JSON string or a JSON number. Numbers keep their
// literal text, so 11 and "11" are the same tag. Absent and null give nil.
func ParseTag(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch {
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTag, err)
		}
		return &s, nil
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTag, err)
		}
		s := n.String()
		return &s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidTag, raw)
}

// ParseLegacyCategory reads the deprecated single "category" field, sent either as an
// integer or as the free-text form accepted by LegacyCategoryTags.
func ParseLegacyCategory(raw json.RawMessage) (Tags, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Tags{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Tags{}, fmt.Errorf("%w: %v", ErrInvalidTag, err)
		}
		return LegacyCategoryTags(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f != math.Trunc(f) {
		return Tags{}, fmt.Errorf("%w: category must be an integer, got %s", ErrInvalidTag, raw)
	}
	if math.Abs(f) > maxCategoryCode {
		return Tags{}, fmt.Errorf("%w: category %s out of range", ErrInvalidTag, raw)
	}
	region := strconv.FormatInt(int64(f), 10)
	return Tags{Region: &region}, nil
}

// LegacyCategoryTags maps the free-text category of the old schema onto structured tags.
// Segments are comma separated and positional: region, road type, transport. Every
// non-empty segment must be an integer. "11,,1" sets region and transport only.
func LegacyCategoryTags(category string) (Tags, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return Tags{}, nil
	}
	parts := strings.Split(category, ",")
	if len(parts) > 3 {
		return Tags{}, fmt.Errorf("%w: category %q has more than three segments", ErrInvalidTag, category)
	}

	var codes [3]*string
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Tags{}, fmt.Errorf("%w: category segment %q is not an integer", ErrInvalidTag, part)
		}
		if n > maxCategoryCode || n < -maxCategoryCode {
			return Tags{}, fmt.Errorf("%w: category segment %q out of range", ErrInvalidTag, part)
		}
		code := strconv.Itoa(n)
		codes[i] = &code
	}
	return Tags{Region: codes[0], RoadType: codes[1], Transport: codes[2]}, nil
}
