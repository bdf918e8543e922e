package storage

import (
	"encoding/json"
	"errors"

	"prunekit/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeParameterState(state model.ParameterState) ([]byte, error) {
	return json.Marshal(state)
}

func DecodeParameterState(data []byte) (model.ParameterState, error) {
	var state model.ParameterState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.ParameterState{}, err
	}
	if err := checkVersion(state.VersionedRecord); err != nil {
		return model.ParameterState{}, err
	}
	return state, nil
}

func EncodeSparsityReport(report model.SparsityReport) ([]byte, error) {
	return json.Marshal(report)
}

func DecodeSparsityReport(data []byte) (model.SparsityReport, error) {
	var report model.SparsityReport
	if err := json.Unmarshal(data, &report); err != nil {
		return model.SparsityReport{}, err
	}
	if err := checkVersion(report.VersionedRecord); err != nil {
		return model.SparsityReport{}, err
	}
	return report, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
