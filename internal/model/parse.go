package model

import "fmt"

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusNew, StatusRead, StatusApplied, StatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// ParseRemoteType converts a raw string to a RemoteType. The empty string is
// valid and means "unspecified".
func ParseRemoteType(s string) (RemoteType, error) {
	rt := RemoteType(s)
	switch rt {
	case "", RemoteFull, RemotePartial, RemoteNone:
		return rt, nil
	}
	return "", fmt.Errorf("unknown remote type %q", s)
}

// ParsePriceType converts a raw string to a PriceType. The empty string is
// valid and means "unspecified".
func ParsePriceType(s string) (PriceType, error) {
	pt := PriceType(s)
	switch pt {
	case "", PriceTypeMonthly, PriceTypeHourly:
		return pt, nil
	}
	return "", fmt.Errorf("unknown price type %q", s)
}
