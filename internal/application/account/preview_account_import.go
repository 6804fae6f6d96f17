package account

import "context"

type DroppedRecordOutput struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type PreviewAccountImportOutput struct {
	Format   string                `json:"format"`
	Accepted int                   `json:"accepted"`
	Dropped  int                   `json:"dropped"`
	Samples  []DroppedRecordOutput `json:"dropped_samples"`
}

type PreviewAccountImport interface {
	Execute(ctx context.Context, in ImportAccountsInput) (PreviewAccountImportOutput, error)
}

type previewAccountImport struct {
	source   ImportSource
	maxBytes int64
}

func NewPreviewAccountImport(source ImportSource, maxBytes int64) PreviewAccountImport {
	if maxBytes <= 0 {
		maxBytes = defaultMaxDocumentBytes
	}
	return &previewAccountImport{source: source, maxBytes: maxBytes}
}

func (uc *previewAccountImport) Execute(ctx context.Context, in ImportAccountsInput) (PreviewAccountImportOutput, error) {
	raw, format, err := loadDocument(ctx, uc.source, in, uc.maxBytes)
	if err != nil {
		return PreviewAccountImportOutput{}, err
	}

	parsed, err := ParseAccounts(raw, format)
	if err != nil {
		return PreviewAccountImportOutput{}, err
	}

	samples := make([]DroppedRecordOutput, 0, len(parsed.Dropped))
	for _, dropped := range parsed.Dropped {
		samples = append(samples, DroppedRecordOutput{Index: dropped.Index, Reason: dropped.Reason})
	}

	return PreviewAccountImportOutput{
		Format:   string(parsed.Format),
		Accepted: parsed.Accepted(),
		Dropped:  parsed.DroppedCount,
		Samples:  samples,
	}, nil
}
