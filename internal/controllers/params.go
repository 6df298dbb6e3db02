package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"walkcanvas/internal/models"
	"walkcanvas/internal/store"
)

// flexString accepts a JSON string or number; clients send account ids both ways.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	tag, err := models.ParseTag(b)
	if err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	if tag == nil {
		*s = ""
		return nil
	}
	*s = flexString(*tag)
	return nil
}

// flexID accepts a positive integer id sent as a JSON number or numeric string.
type flexID struct {
	Value uint
	Set   bool
}

func (id *flexID) UnmarshalJSON(b []byte) error {
	tag, err := models.ParseTag(b)
	if err != nil {
		return fmt.Errorf("expected numeric id, got %s", b)
	}
	if tag == nil {
		*id = flexID{}
		return nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(*tag), 10, 64)
	if err != nil {
		return fmt.Errorf("expected numeric id, got %s", b)
	}
	*id = flexID{Value: uint(n), Set: true}
	return nil
}

// Category keys accepted by search. The Korean keys are what the mobile client sends.
var categoryKeys = map[string]string{
	"region":    "region",
	"region_id": "region",
	"지역":        "region",

	"road_type":    "road_type",
	"road_type_id": "road_type",
	"길 유형":         "road_type",

	"transport":    "transport",
	"transport_id": "transport",
	"이동수단":         "transport",
}

var errTagList = errors.New("category values must be a list of strings or numbers")

// tagList reads a JSON list of tag codes. A single string or number is a one-item list.
func tagList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '[' {
		tag, err := models.ParseTag(raw)
		if err != nil {
			return nil, errTagList
		}
		return []string{*tag}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errTagList
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		tag, err := models.ParseTag(item)
		if err != nil {
			return nil, errTagList
		}
		if tag != nil {
			out = append(out, *tag)
		}
	}
	return out, nil
}

// parseListParam reads a query parameter sent either as a JSON list or as comma
// separated text.
func parseListParam(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		if list, err := tagList(json.RawMessage(s)); err == nil {
			return list
		}
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func filtersFromQuery(c *gin.Context) store.Filters {
	return store.Filters{
		Regions:    parseListParam(c.Query("region_id")),
		RoadTypes:  parseListParam(c.Query("road_type_id")),
		Transports: parseListParam(c.Query("transport_id")),
	}
}

// filtersFromCategories builds filters from a search "categories" object.
// Unknown keys are ignored.
func filtersFromCategories(categories map[string]json.RawMessage) (store.Filters, error) {
	var f store.Filters
	for key, raw := range categories {
		dim, ok := categoryKeys[strings.TrimSpace(key)]
		if !ok {
			continue
		}
		list, err := tagList(raw)
		if err != nil {
			return store.Filters{}, fmt.Errorf("%w: %s: %v", store.ErrBadRequest, key, err)
		}
		switch dim {
		case "region":
			f.Regions = append(f.Regions, list...)
		case "road_type":
			f.RoadTypes = append(f.RoadTypes, list...)
		case "transport":
			f.Transports = append(f.Transports, list...)
		}
	}
	return f, nil
}
