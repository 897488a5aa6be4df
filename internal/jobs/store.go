package jobs

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/model"
)

var ErrJobNotFound = errors.New("job not found")

// Store persists jobs in MySQL. Queue position lives in Redis; this table
// is the source of truth for status and results.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(job *model.Job) error {
	_, err := s.db.Exec(`
		INSERT INTO jobs
			(id, query_type, query, contract, status, attempts, payer_address, tx_hash, network, created_at, updated_at)
		VALUES (?,?,?,?,?,0,?,?,?,NOW(),NOW())`,
		job.ID, job.QueryType, job.Query, job.Contract, job.Status,
		job.PayerAddress, job.TxHash, job.Network)
	return err
}

func (s *Store) Get(id string) (*model.Job, error) {
	var job model.Job
	err := s.db.Get(&job, `SELECT * FROM jobs WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *Store) SetStatus(id string, status model.JobStatus) error {
	_, err := s.db.Exec(`UPDATE jobs SET status=?, updated_at=NOW() WHERE id=?`, status, id)
	return err
}

// MarkProcessing flips a job to processing and counts the attempt.
func (s *Store) MarkProcessing(id string) error {
	_, err := s.db.Exec(`UPDATE jobs SET status='processing', attempts=attempts+1, updated_at=NOW() WHERE id=?`, id)
	return err
}

func (s *Store) SetResult(id string, resultJSON []byte) error {
	_, err := s.db.Exec(`
		UPDATE jobs SET status='completed', result=?, last_error=NULL, completed_at=NOW(), updated_at=NOW()
		WHERE id=?`, resultJSON, id)
	return err
}

func (s *Store) SetError(id string, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE jobs SET status='failed', last_error=?, completed_at=NOW(), updated_at=NOW()
		WHERE id=?`, errMsg, id)
	return err
}

// PruneKeepingLatest deletes finished jobs beyond the newest keep rows.
// MySQL forbids reading the target table in a DELETE subquery directly,
// hence the derived-table wrap.
func (s *Store) PruneKeepingLatest(keep int) (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM jobs WHERE status IN ('completed','failed') AND id NOT IN (
			SELECT id FROM (
				SELECT id FROM jobs WHERE status IN ('completed','failed')
				ORDER BY created_at DESC LIMIT ?
			) AS newest
		)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
