package sinks

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/loclint/loclint/pkg/errors"
	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
)

// xlsxSheet is the report sheet name.
const xlsxSheet = "Findings"

// XLSXSink writes grouped verdicts as an Excel workbook, one row per
// check. Localization vendors typically triage findings in spreadsheets.
type XLSXSink struct {
	cfg  output.SinkConfig
	file *excelize.File
	row  int
}

// NewXLSXSink creates an XLSX report sink.
func NewXLSXSink() *XLSXSink {
	return &XLSXSink{}
}

// Initialize prepares the workbook and header row.
func (s *XLSXSink) Initialize(cfg output.SinkConfig) error {
	s.cfg = cfg
	s.file = excelize.NewFile()

	index, err := s.file.NewSheet(xlsxSheet)
	if err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "cannot create report sheet")
	}
	s.file.SetActiveSheet(index)
	if err := s.file.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "cannot drop default sheet")
	}

	header := []interface{}{"Object", "Rule", "Category", "Verdict", "Severity", "Check", "Check Result", "Message"}
	if err := s.file.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "cannot write header row")
	}
	s.row = 2
	return nil
}

// WriteEntry appends one row per check of the group.
func (s *XLSXSink) WriteEntry(obj *object.Object, entries []*output.Entry) error {
	if s.file == nil {
		return errors.New(errors.CodeSinkFinished, "write after finish")
	}
	for _, e := range entries {
		for idx, item := range e.Items {
			row := []interface{}{
				obj.Key(),
				e.RuleName,
				e.Category,
				boolAttr(e.Result),
				e.Severity.String(),
				idx + 1,
				boolAttr(item.Result),
				item.Message,
			}
			cell := fmt.Sprintf("A%d", s.row)
			if err := s.file.SetSheetRow(xlsxSheet, cell, &row); err != nil {
				return errors.Wrap(err, errors.CodeWriteFailed, "cannot write finding row").
					WithContext("row", s.row)
			}
			s.row++
		}
	}
	return nil
}

// Finish saves the workbook.
func (s *XLSXSink) Finish() error {
	if s.file == nil {
		return nil
	}
	defer func() { s.file = nil }()

	if err := s.file.SaveAs(s.cfg.Path); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "cannot save workbook").
			WithContext("path", s.cfg.Path)
	}
	return s.file.Close()
}
