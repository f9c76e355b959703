package service

// Stats is a snapshot of batch progress.
type Stats struct {
	Total     int64 `json:"total"`
	Done      int64 `json:"done"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Running   int64 `json:"running"`
}

// Stats returns the progress of the current or last batch.
func (s *Service) Stats() Stats {
	return Stats{
		Total:     s.total.Load(),
		Done:      s.done.Load(),
		Succeeded: s.succeeded.Load(),
		Failed:    s.failed.Load(),
		Running:   s.running.Load(),
	}
}

func (s *Service) resetProgress(total int) {
	s.total.Store(int64(total))
	s.done.Store(0)
	s.succeeded.Store(0)
	s.failed.Store(0)
}
