package dynamo

import (
	"fmt"
	"strings"
)

// ConnectionString is the parsed form of
// "Endpoint=...;Region=...;AccessKeyId=...;SecretAccessKey=...[;SessionToken=...]".
// AccountName/AccountKey are accepted as aliases for the key pair.
type ConnectionString struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

func ParseConnectionString(raw string) (ConnectionString, error) {
	var cs ConnectionString
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return ConnectionString{}, fmt.Errorf("invalid connection string segment %q, expected key=value", redactSegment(part))
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "endpoint", "tableendpoint":
			cs.Endpoint = value
		case "region":
			cs.Region = value
		case "accesskeyid", "accountname":
			cs.AccessKeyID = value
		case "secretaccesskey", "accountkey":
			cs.SecretAccessKey = value
		case "sessiontoken":
			cs.SessionToken = value
		case "defaultendpointsprotocol", "endpointsuffix":
		default:
			return ConnectionString{}, fmt.Errorf("unknown connection string key %q", key)
		}
	}

	if cs.AccessKeyID == "" || cs.SecretAccessKey == "" {
		return ConnectionString{}, fmt.Errorf("connection string must contain AccessKeyId and SecretAccessKey")
	}
	return cs, nil
}

func redactSegment(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***"
}
