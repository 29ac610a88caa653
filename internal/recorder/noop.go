package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTransfer(_ *TransferEvent) error       { return nil }
func (n *NoopRecorder) RecordDividendCycle(_ *DividendCycle) error  { return nil }
func (n *NoopRecorder) RecordStakingCycle(_ *StakingCycle) error    { return nil }
func (n *NoopRecorder) Close() error                                { return nil }
