package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/scythe504/trivia-backend/internal"
)

// ReadQuestionsCsvFile loads seed questions from path.
func ReadQuestionsCsvFile(path string, defaultTimeLimit int, logger *slog.Logger) ([]internal.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read input file %s: %w", path, err)
	}
	defer f.Close()

	return ReadQuestionsCsv(f, defaultTimeLimit, logger)
}

// ReadQuestionsCsv parses rows of
// category,text,correct,wrong1,wrong2,wrong3[,timeLimit].
// Malformed rows are skipped and logged.
func ReadQuestionsCsv(r io.Reader, defaultTimeLimit int, logger *slog.Logger) ([]internal.Question, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse file as CSV: %w", err)
	}

	var questions []internal.Question
	for i, record := range records {
		if i == 0 && strings.EqualFold(strings.TrimSpace(record[0]), "category") {
			continue
		}
		if len(record) < 6 {
			logger.Warn("[ReadQuestionsCsv] skipping invalid record", "line", i+1, "fields", len(record))
			continue
		}

		timeLimit := defaultTimeLimit
		if len(record) > 6 && strings.TrimSpace(record[6]) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(record[6]))
			if err != nil || n <= 0 {
				logger.Warn("[ReadQuestionsCsv] invalid time limit", "line", i+1, "value", record[6])
				continue
			}
			timeLimit = n
		}

		category := strings.TrimSpace(record[0])
		text := strings.TrimSpace(record[1])
		correct := strings.TrimSpace(record[2])
		if category == "" || text == "" || correct == "" {
			logger.Warn("[ReadQuestionsCsv] skipping record with empty fields", "line", i+1)
			continue
		}
		incorrect := make([]string, 0, 3)
		for _, w := range record[3:6] {
			incorrect = append(incorrect, strings.TrimSpace(w))
		}

		questions = append(questions, internal.Question{
			ID:            QuestionID(category, text),
			Category:      category,
			Text:          text,
			Options:       append([]string{correct}, incorrect...),
			CorrectAnswer: correct,
			TimeLimit:     timeLimit,
		})
	}

	return questions, nil
}
