package email

const (
	subjectBatchReportFmt = "Outreach batch %s: %d sent, %d failed"
)
