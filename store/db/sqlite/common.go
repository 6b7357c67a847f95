package sqlite

import (
	"encoding/json"
	"strconv"
	"strings"
)

// placeholder returns a placeholder for SQLite (uses ?).
func placeholder(int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite.
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func marshalJSON(v any) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func unmarshalStringList(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func unmarshalInt32List(raw string) ([]int32, error) {
	if raw == "" {
		return nil, nil
	}
	var list []int32
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func unmarshalAnswers(raw string) (map[int32]string, error) {
	answers := make(map[int32]string)
	if raw == "" || raw == "{}" {
		return answers, nil
	}
	// JSON object keys are strings; question ids are stored as their decimal form.
	var byKey map[string]string
	if err := json.Unmarshal([]byte(raw), &byKey); err != nil {
		return nil, err
	}
	for key, value := range byKey {
		id, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return nil, err
		}
		answers[int32(id)] = value
	}
	return answers, nil
}

func marshalAnswers(answers map[int32]string) (string, error) {
	byKey := make(map[string]string, len(answers))
	for id, value := range answers {
		byKey[strconv.FormatInt(int64(id), 10)] = value
	}
	return marshalJSON(byKey)
}
