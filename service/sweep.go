package service

import "context"

// SweepExpired removes expired pastes from the database and clears
// their on-disk trees. It is safe to run concurrently with normal
// traffic: the rows go first, so readers racing the sweep see a missing
// paste, never a half-present one.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	swept, err := s.Provider.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}

	for _, p := range swept {
		if err := s.Store.Destroy(p.ID, p.AuthorID); err != nil {
			s.Logger.WithField("paste", p.ID).Error("orphaned expired paste directory: ", err)
		}
	}

	if len(swept) > 0 {
		s.Logger.Infof("removed %d lingering expirees", len(swept))
	}
	return len(swept), nil
}
