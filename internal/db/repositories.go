package db

// Repositories provides access to all database repositories
type Repositories struct {
	Sessions   *SessionRepository
	Singers    *SingerRepository
	QueueItems *QueueItemRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Sessions:   NewSessionRepository(db),
		Singers:    NewSingerRepository(db),
		QueueItems: NewQueueItemRepository(db),
	}
}
