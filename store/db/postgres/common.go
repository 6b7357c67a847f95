package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// placeholder returns the n-th placeholder for PostgreSQL (1-based).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns n positional placeholders starting at $1.
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// isUniqueViolation reports whether err is a unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
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
