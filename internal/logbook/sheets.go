package logbook

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const userEnteredInputOption = "USER_ENTERED"

// ErrMissingSpreadsheet is returned when no spreadsheet identifier is configured.
var ErrMissingSpreadsheet = errors.New("spreadsheet id is empty")

type valuesAppender interface {
	Append(ctx context.Context, spreadsheetID string, cellRange string, row []interface{}) error
}

type sheetsAppender struct {
	service *sheets.Service
}

func (a sheetsAppender) Append(ctx context.Context, spreadsheetID string, cellRange string, row []interface{}) error {
	_, err := a.service.Spreadsheets.Values.
		Append(spreadsheetID, cellRange, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption(userEnteredInputOption).
		Context(ctx).
		Do()
	return err
}

// SheetsRecorder appends rows to the first sheet of a Google spreadsheet.
type SheetsRecorder struct {
	appender      valuesAppender
	spreadsheetID string
	cellRange     string
}

// NewSheetsRecorder authenticates with service-account credentials JSON.
func NewSheetsRecorder(ctx context.Context, credentialsJSON []byte, spreadsheetID string, cellRange string, options ...option.ClientOption) (*SheetsRecorder, error) {
	if spreadsheetID == "" {
		return nil, ErrMissingSpreadsheet
	}
	clientOptions := append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, options...)
	if len(credentialsJSON) > 0 {
		clientOptions = append(clientOptions, option.WithCredentialsJSON(credentialsJSON))
	}
	service, err := sheets.NewService(ctx, clientOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "create sheets service")
	}
	return &SheetsRecorder{appender: sheetsAppender{service: service}, spreadsheetID: spreadsheetID, cellRange: cellRange}, nil
}

func (s *SheetsRecorder) Record(ctx context.Context, entry Entry) error {
	if err := s.appender.Append(ctx, s.spreadsheetID, s.cellRange, entry.Row()); err != nil {
		return errors.Wrapf(err, "append row to spreadsheet %s", s.spreadsheetID)
	}
	return nil
}
