// Package xlsx imports the customer CAN matrix workbook format. The
// workbook carries an Rx and a Tx sheet with two header rows each;
// start bits are not part of the format and stay at zero.
package xlsx

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/autosar-community/ecucgen/internal/logger"
	"github.com/autosar-community/ecucgen/internal/model"
)

const (
	rxSheet    = "Rx"
	txSheet    = "Tx"
	headerRows = 2
	defaultDLC = 8
)

// Rx sheet columns.
const (
	rxColMessageName = iota
	rxColMessageID
	rxColSignalName
	rxColLegacySRDName
	rxColLegacyImplName
	rxColSignalSize
	rxColUnits
	rxColSignalGroup
	rxColHasSNA
	rxColPeriodicity
)

// Tx sheet columns.
const (
	txColMessageName = iota
	txColMessageID
	txColSignalName
	txColSignalGroup
	txColSignalSize
	txColUnits
	txColHasSNA
	txColPeriodicity
	txColDBCComment
	txColNotes
)

// Load reads one .xlsx file (case-insensitive extension) and maps the
// Rx and Tx sheets onto the CAN model. A missing sheet is logged and
// skipped; malformed rows are logged and skipped. The network takes the
// file stem as its name and carries no node list.
func Load(path string) (*model.CANDatabase, error) {
	ext := filepath.Ext(path)
	if strings.ToLower(ext) != ".xlsx" {
		return nil, &model.ParseError{
			File: path,
			Err:  fmt.Errorf("Unsupported file extension: %s. Expected one of: .xlsx", ext),
		}
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &model.ParseError{File: path, Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warnf("%s: %v", path, err)
		}
	}()

	stem := strings.TrimSuffix(filepath.Base(path), ext)
	db := model.NewCANDatabase(stem)

	if hasSheet(f, rxSheet) {
		rows, err := f.GetRows(rxSheet)
		if err != nil {
			return nil, &model.ParseError{File: path, Err: err}
		}
		parseRxRows(db, rows)
	} else {
		logger.Warnf("Sheet '%s' not found in %s", rxSheet, path)
	}
	if hasSheet(f, txSheet) {
		rows, err := f.GetRows(txSheet)
		if err != nil {
			return nil, &model.ParseError{File: path, Err: err}
		}
		parseTxRows(db, rows)
	} else {
		logger.Warnf("Sheet '%s' not found in %s", txSheet, path)
	}
	return db, nil
}

func hasSheet(f *excelize.File, name string) bool {
	for _, sheet := range f.GetSheetList() {
		if sheet == name {
			return true
		}
	}
	return false
}

// parseRxRows walks the Rx sheet. A blank message name continues the
// previous message (merged cells); a blank signal name skips the row.
func parseRxRows(db *model.CANDatabase, rows [][]string) {
	var current *model.CANMessage
	for i, row := range rows {
		if i < headerRows {
			continue
		}
		rowNum := i + 1
		sigName := cell(row, rxColSignalName)
		if sigName == "" {
			continue
		}
		msgName := cell(row, rxColMessageName)
		switch {
		case msgName == "":
			if current == nil {
				logger.Warnf("Row %d: signal without message name, skipping", rowNum)
				continue
			}
		default:
			if msg, ok := db.MessageByName(msgName); ok {
				current = msg
				break
			}
			id := parseMessageID(cell(row, rxColMessageID))
			msg, err := model.NewCANMessage(msgName, id, id > model.MaxStandardFrameID, defaultDLC)
			if err != nil {
				logger.Warnf("Row %d: %v", rowNum, err)
				continue
			}
			msg.CycleTime = parseCycleTime(cell(row, rxColPeriodicity))
			msg.Comment = "RX Message from XLSX"
			db.AddMessage(msg)
			current = msg
		}

		signal, err := model.NewCANSignal(sigName, 0, parseSize(cell(row, rxColSignalSize)), 1, 0)
		if err != nil {
			logger.Warnf("Row %d: %v", rowNum, err)
			continue
		}
		signal.Unit = cell(row, rxColUnits)
		signal.Receivers = []string{"ECU"}
		current.AddSignal(signal)
	}
}

func parseTxRows(db *model.CANDatabase, rows [][]string) {
	var current *model.CANMessage
	for i, row := range rows {
		if i < headerRows {
			continue
		}
		rowNum := i + 1
		sigName := cell(row, txColSignalName)
		if sigName == "" {
			continue
		}
		msgName := cell(row, txColMessageName)
		switch {
		case msgName == "":
			if current == nil {
				logger.Warnf("Row %d: signal without message name, skipping", rowNum)
				continue
			}
		default:
			if msg, ok := db.MessageByName(msgName); ok {
				current = msg
				break
			}
			id := parseMessageID(cell(row, txColMessageID))
			msg, err := model.NewCANMessage(msgName, id, id > model.MaxStandardFrameID, defaultDLC)
			if err != nil {
				logger.Warnf("Row %d: %v", rowNum, err)
				continue
			}
			msg.CycleTime = parseCycleTime(cell(row, txColPeriodicity))
			msg.Senders = []string{"ECU"}
			msg.Comment = cell(row, txColDBCComment)
			if msg.Comment == "" {
				msg.Comment = "TX Message from XLSX"
			}
			db.AddMessage(msg)
			current = msg
		}

		signal, err := model.NewCANSignal(sigName, 0, parseSize(cell(row, txColSignalSize)), 1, 0)
		if err != nil {
			logger.Warnf("Row %d: %v", rowNum, err)
			continue
		}
		signal.Unit = cell(row, txColUnits)
		signal.Comment = cell(row, txColDBCComment)
		current.AddSignal(signal)
	}
}

// cell reads one column; rows come back without trailing empty cells.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseMessageID accepts the 'h' hex suffix ("5B0h"), the 0x prefix,
// bare hex ("CC") and plain decimal. Numeric cells arrive as digit
// strings, so decimal wins over bare hex. Unparseable IDs become 0.
func parseMessageID(raw string) uint32 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if strings.HasSuffix(strings.ToLower(s), "h") {
		if v, err := strconv.ParseUint(s[:len(s)-1], 16, 32); err == nil {
			return uint32(v)
		}
		logger.Warnf("Could not parse message ID: %s, using 0", raw)
		return 0
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if v, err := strconv.ParseUint(s[2:], 16, 32); err == nil {
			return uint32(v)
		}
		logger.Warnf("Could not parse message ID: %s, using 0", raw)
		return 0
	}
	if v, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(v)
	}
	if v, err := strconv.ParseUint(s, 16, 32); err == nil {
		return uint32(v)
	}
	logger.Warnf("Could not parse message ID: %s, using 0", raw)
	return 0
}

func parseCycleTime(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func parseSize(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 8
	}
	return v
}
