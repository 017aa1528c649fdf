package workspace

import (
	"fmt"

	"github.com/lexi/internal/apperr"
	"github.com/lexi/internal/media"
	"github.com/lexi/pkg/models"
)

// UploadState is the analyzer's position in Empty → FileSelected → Analyzing → Reported
type UploadState string

const (
	UploadEmpty        UploadState = "empty"
	UploadFileSelected UploadState = "file_selected"
	UploadAnalyzing    UploadState = "analyzing"
	UploadReported     UploadState = "reported"
)

// Analyzer holds one selected document and, once analyzed, its report and chat
type Analyzer struct {
	state   UploadState
	file    *models.UploadedFile
	report  *models.AnalysisResult
	chat    *Conversation
	request Request
}

// NewAnalyzer starts in Empty
func NewAnalyzer() *Analyzer {
	return &Analyzer{state: UploadEmpty}
}

// Select validates and selects a file, replacing any previous file and
// dropping its report. A rejected file leaves the state untouched.
func (a *Analyzer) Select(file models.UploadedFile, limits media.Limits) error {
	if a.state == UploadAnalyzing {
		return fmt.Errorf("%w: analysis in progress", ErrInvalidTransition)
	}
	if err := limits.CheckDocument(file); err != nil {
		return err
	}
	a.file = &file
	a.report = nil
	a.chat = nil
	a.request.Reset()
	a.state = UploadFileSelected
	return nil
}

// Remove clears the selection from FileSelected or Reported
func (a *Analyzer) Remove() error {
	switch a.state {
	case UploadAnalyzing:
		return fmt.Errorf("%w: analysis in progress", ErrInvalidTransition)
	case UploadEmpty:
		return nil
	}
	a.file = nil
	a.report = nil
	a.chat = nil
	a.request.Reset()
	a.state = UploadEmpty
	return nil
}

// BeginAnalyze moves FileSelected → Analyzing and returns the file to send
func (a *Analyzer) BeginAnalyze() (models.UploadedFile, error) {
	if a.state == UploadAnalyzing {
		return models.UploadedFile{}, ErrRequestInFlight
	}
	if a.state != UploadFileSelected {
		return models.UploadedFile{}, fmt.Errorf("%w: select a file first", ErrInvalidTransition)
	}
	if err := a.request.Begin(); err != nil {
		return models.UploadedFile{}, err
	}
	a.state = UploadAnalyzing
	return *a.file, nil
}

// Complete ends an analysis. Failure returns to FileSelected; success moves
// to Reported and opens a fresh conversation.
func (a *Analyzer) Complete(result models.AnalysisResult, err error) {
	if a.state != UploadAnalyzing {
		return
	}
	a.request.Finish(err)
	if err != nil {
		a.state = UploadFileSelected
		return
	}
	a.report = &result
	a.chat = NewConversation(result)
	a.state = UploadReported
}

// Report returns the analysis while in Reported
func (a *Analyzer) Report() (models.AnalysisResult, bool) {
	if a.state != UploadReported || a.report == nil {
		return models.AnalysisResult{}, false
	}
	return *a.report, true
}

// Chat returns the conversation about the current report
func (a *Analyzer) Chat() (*Conversation, error) {
	if a.state != UploadReported || a.chat == nil {
		return nil, ErrChatUnavailable
	}
	return a.chat, nil
}

func (a *Analyzer) State() UploadState { return a.state }

// AnalyzerView is the serializable state of the analyzer
type AnalyzerView struct {
	State     UploadState            `json:"state"`
	File      *models.UploadedFile   `json:"file,omitempty"`
	FileSize  int64                  `json:"fileSize,omitempty"`
	Request   RequestState           `json:"request"`
	Error     string                 `json:"error,omitempty"`
	Report    *models.AnalysisResult `json:"report,omitempty"`
	CanChat   bool                   `json:"canChat"`
	CanExport bool                   `json:"canExport"`
}

// View snapshots the analyzer
func (a *Analyzer) View() AnalyzerView {
	v := AnalyzerView{State: a.state, Request: a.request.State()}
	if a.file != nil {
		f := *a.file
		f.Data = nil
		v.File = &f
		v.FileSize = a.file.Size()
	}
	if err := a.request.Err(); err != nil {
		v.Error = apperr.UserMessage(err)
	}
	if r, ok := a.Report(); ok {
		v.Report = &r
		v.CanChat = true
		v.CanExport = true
	}
	return v
}
