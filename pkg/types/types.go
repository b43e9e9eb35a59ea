package types

import "fmt"

// DefectRecord is one defect entry parsed from an inspection report.
// X and Y are the corrected stage coordinates in micrometers, rounded to
// one decimal. Index is 1-based and follows the row order of the report,
// which is also the frame order of the merged TIFF.
type DefectRecord struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Channel describes one imaging channel of the microscope: the field-of-view
// label used as the FOV component of generated filenames and the detector
// label (BSE, SE1, SE2, ...). The configured channel list is ordered; frame
// k of a defect group belongs to channel k.
type Channel struct {
	Scale    string `json:"scale"`
	Detector string `json:"detector"`
}

// CountMismatchError reports a disagreement between the number of image
// frames found in a folder and the number expected from the defect records
// and the configured channels.
type CountMismatchError struct {
	Dir    string
	Images int
	Want   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%s: %d images but %d expected from records and channels", e.Dir, e.Images, e.Want)
}

// MissingMetadataError reports that a folder lacks the inspection report
// required by the requested operation.
type MissingMetadataError struct {
	Dir string
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("%s: no inspection report (.001) found", e.Dir)
}
