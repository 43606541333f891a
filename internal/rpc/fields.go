package rpc

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
	"github.com/tranbinhminh1403/back-end-thesis/internal/search"
)

func field(msg *structpb.Struct, key string) *structpb.Value {
	if msg == nil {
		return nil
	}
	return msg.GetFields()[key]
}

func stringField(msg *structpb.Struct, key string) string {
	return strings.TrimSpace(field(msg, key).GetStringValue())
}

// stringsField accepts a single string or a list of strings.
func stringsField(msg *structpb.Struct, key string) []string {
	v := field(msg, key)
	if v == nil {
		return nil
	}
	if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		return []string{s.StringValue}
	}
	var out []string
	for _, item := range v.GetListValue().GetValues() {
		if s, ok := item.GetKind().(*structpb.Value_StringValue); ok {
			out = append(out, s.StringValue)
		}
	}
	return out
}

func idField(msg *structpb.Struct, key string) (int64, error) {
	n, set, err := intField(msg, key)
	if err != nil {
		return 0, err
	}
	if !set || n <= 0 {
		return 0, catalog.InvalidInput("%s must be a positive integer", key)
	}
	return int64(n), nil
}

func intField(msg *structpb.Struct, key string) (int, bool, error) {
	v := field(msg, key)
	if v == nil {
		return 0, false, nil
	}
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || num.NumberValue != math.Trunc(num.NumberValue) {
		return 0, false, catalog.InvalidInput("%s must be an integer", key)
	}
	return int(num.NumberValue), true, nil
}

// priceField accepts a number or a decimal string.
func priceField(msg *structpb.Struct, key string) (*decimal.Decimal, error) {
	v := field(msg, key)
	if v == nil {
		return nil, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		d := decimal.NewFromFloat(k.NumberValue)
		return &d, nil
	case *structpb.Value_StringValue:
		if strings.TrimSpace(k.StringValue) == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(k.StringValue))
		if err != nil {
			return nil, catalog.InvalidInput("%s must be a number", key)
		}
		return &d, nil
	case *structpb.Value_NullValue:
		return nil, nil
	default:
		return nil, catalog.InvalidInput("%s must be a number", key)
	}
}

func filtersFrom(msg *structpb.Struct) (models.SearchFilters, error) {
	f := models.SearchFilters{
		Name:  stringField(msg, "name"),
		Brand: stringField(msg, "brand"),
		Shop:  stringField(msg, "shop"),
		Specs: stringsField(msg, "specs"),
	}
	var err error
	if f.MinPrice, err = priceField(msg, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = priceField(msg, "maxPrice"); err != nil {
		return f, err
	}
	return f, nil
}

func queryFrom(msg *structpb.Struct) (search.Query, error) {
	q := search.Query{
		Text:     field(msg, "q").GetStringValue(),
		Brands:   stringsField(msg, "brand"),
		Shops:    stringsField(msg, "shop"),
		Statuses: stringsField(msg, "status"),
	}
	var err error
	if q.MinPrice, err = priceField(msg, "minPrice"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = priceField(msg, "maxPrice"); err != nil {
		return q, err
	}
	if q.Limit, _, err = intField(msg, "limit"); err != nil {
		return q, err
	}
	if q.Offset, _, err = intField(msg, "offset"); err != nil {
		return q, err
	}
	return q, nil
}
