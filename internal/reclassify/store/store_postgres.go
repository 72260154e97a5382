package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reclass/internal/reclassify"
	id "reclass/pkg/domain"
	"reclass/pkg/platform/sentinel"
)

// PostgresStore backs the three record-store ports against PostgreSQL. The
// record source performs the individual/child join itself so the engine
// receives fully populated batches.
type PostgresStore struct {
	db *sql.DB
	// source filters streaming to organizations still carrying this
	// classification; records converted by a previous run never match again.
	source id.ClassificationID
}

// NewPostgresStore constructs a PostgreSQL-backed record store scoped to the
// source classification.
func NewPostgresStore(db *sql.DB, source id.ClassificationID) *PostgresStore {
	return &PostgresStore{db: db, source: source}
}

// ResolveClassification looks up a classification id by name. Used at
// startup to turn the configured target classification name into an id.
func ResolveClassification(ctx context.Context, db *sql.DB, name string) (id.ClassificationID, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		`SELECT id::text FROM classifications WHERE name = $1`, name,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return id.ClassificationID{}, fmt.Errorf("classification %q: %w", name, sentinel.ErrNotFound)
		}
		return id.ClassificationID{}, fmt.Errorf("resolve classification: %w", err)
	}
	return id.ParseClassificationID(raw)
}

// HasCurrencyAttribute reports whether the store schema carries the optional
// currency column, the feature probe behind multi-currency mode.
func HasCurrencyAttribute(ctx context.Context, db *sql.DB) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'organizations' AND column_name = 'currency_code'
		)`,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("probe currency attribute: %w", err)
	}
	return exists, nil
}

// Stream opens a keyset-paginated cursor over matching organizations.
func (s *PostgresStore) Stream(_ context.Context, batchSize int) (reclassify.RecordIterator, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	return &postgresIterator{store: s, batchSize: batchSize}, nil
}

type postgresIterator struct {
	store     *PostgresStore
	batchSize int
	lastID    string
	done      bool
}

func (it *postgresIterator) Next(ctx context.Context) ([]reclassify.OrganizationRecord, error) {
	if it.done {
		return nil, nil
	}

	rows, err := it.store.db.QueryContext(ctx, `
		SELECT o.id::text,
		       o.portal_linked,
		       o.owner_id::text,
		       o.currency_code,
		       o.parent_id::text,
		       o.classification_id::text,
		       EXISTS (SELECT 1 FROM organizations c WHERE c.parent_id = o.id) AS has_children
		FROM organizations o
		WHERE o.classification_id = $1
		  AND ($2 = '' OR o.id::text > $2)
		ORDER BY o.id::text
		LIMIT $3`,
		it.store.source.String(), it.lastID, it.batchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("stream organizations: %w", err)
	}
	defer rows.Close()

	var batch []reclassify.OrganizationRecord
	for rows.Next() {
		record, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		batch = append(batch, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stream organizations: %w", err)
	}

	if len(batch) == 0 {
		it.done = true
		return nil, nil
	}
	it.lastID = batch[len(batch)-1].ID.String()
	if len(batch) < it.batchSize {
		it.done = true
	}

	if err := it.store.attachIndividuals(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (it *postgresIterator) Close() error {
	it.done = true
	return nil
}

func scanOrganization(rows *sql.Rows) (reclassify.OrganizationRecord, error) {
	var (
		record         reclassify.OrganizationRecord
		rawID          string
		rawOwner       string
		currency       sql.NullString
		rawParent      sql.NullString
		rawClass       string
	)
	if err := rows.Scan(&rawID, &record.PortalLinked, &rawOwner, &currency, &rawParent, &rawClass, &record.HasChildren); err != nil {
		return record, fmt.Errorf("scan organization: %w", err)
	}

	orgID, err := id.ParseOrgID(rawID)
	if err != nil {
		return record, err
	}
	record.ID = orgID
	owner, err := id.ParseOwnerID(rawOwner)
	if err != nil {
		return record, fmt.Errorf("organization %s owner: %w", rawID, err)
	}
	record.OwnerID = owner
	record.CurrencyCode = currency.String
	if rawParent.Valid {
		parentID, err := id.ParseOrgID(rawParent.String)
		if err != nil {
			return record, err
		}
		record.ParentID = parentID
	}
	classID, err := id.ParseClassificationID(rawClass)
	if err != nil {
		return record, err
	}
	record.ClassificationID = classID
	return record, nil
}

// attachIndividuals joins each organization's associated individuals onto the
// batch in one query.
func (s *PostgresStore) attachIndividuals(ctx context.Context, batch []reclassify.OrganizationRecord) error {
	orgIDs := make([]string, len(batch))
	index := make(map[id.OrgID]int, len(batch))
	for i, record := range batch {
		orgIDs[i] = record.ID.String()
		index[record.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id::text, i.organization_id::text, i.owner_id::text, i.currency_code, i.reports_to_id::text
		FROM individuals i
		WHERE i.organization_id = ANY($1::uuid[])
		ORDER BY i.id::text`,
		orgIDs,
	)
	if err != nil {
		return fmt.Errorf("load individuals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rawID        string
			rawOrg       string
			rawOwner     string
			currency     sql.NullString
			rawReportsTo sql.NullString
		)
		if err := rows.Scan(&rawID, &rawOrg, &rawOwner, &currency, &rawReportsTo); err != nil {
			return fmt.Errorf("scan individual: %w", err)
		}

		individualID, err := id.ParseIndividualID(rawID)
		if err != nil {
			return err
		}
		orgID, err := id.ParseOrgID(rawOrg)
		if err != nil {
			return err
		}
		owner, err := id.ParseOwnerID(rawOwner)
		if err != nil {
			return fmt.Errorf("individual %s owner: %w", rawID, err)
		}
		individual := reclassify.IndividualRecord{
			ID:           individualID,
			OwnerID:      owner,
			CurrencyCode: currency.String,
		}
		if rawReportsTo.Valid {
			reportsTo, err := id.ParseIndividualID(rawReportsTo.String)
			if err != nil {
				return err
			}
			individual.ReportsToID = reportsTo
		}

		if i, ok := index[orgID]; ok {
			batch[i].Individuals = append(batch[i].Individuals, individual)
		}
	}
	return rows.Err()
}

// FindReportsTo returns every reports-to edge whose target is one of the
// candidate individuals, store-wide.
func (s *PostgresStore) FindReportsTo(ctx context.Context, targets []id.IndividualID) ([]reclassify.ReportsToRelation, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	targetIDs := make([]string, len(targets))
	for i, target := range targets {
		targetIDs[i] = target.String()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id::text, i.reports_to_id::text
		FROM individuals i
		WHERE i.reports_to_id = ANY($1::uuid[])`,
		targetIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("find reports-to relations: %w", err)
	}
	defer rows.Close()

	var relations []reclassify.ReportsToRelation
	for rows.Next() {
		var rawChild, rawTarget string
		if err := rows.Scan(&rawChild, &rawTarget); err != nil {
			return nil, fmt.Errorf("scan reports-to relation: %w", err)
		}
		childID, err := id.ParseIndividualID(rawChild)
		if err != nil {
			return nil, err
		}
		targetID, err := id.ParseIndividualID(rawTarget)
		if err != nil {
			return nil, err
		}
		relations = append(relations, reclassify.ReportsToRelation{
			IndividualID: childID,
			ReportsToID:  targetID,
		})
	}
	return relations, rows.Err()
}

// Apply performs each mutation as its own statement with no wrapping
// transaction, so one record's failure never rolls back its siblings.
func (s *PostgresStore) Apply(ctx context.Context, requests []reclassify.MutationRequest) ([]reclassify.MutationOutcome, error) {
	outcomes := make([]reclassify.MutationOutcome, 0, len(requests))
	for _, request := range requests {
		outcome := reclassify.MutationOutcome{OrgID: request.OrgID, Success: true}

		result, err := s.db.ExecContext(ctx, `
			UPDATE organizations SET classification_id = $1 WHERE id = $2`,
			request.ClassificationID.String(), request.OrgID.String(),
		)
		if err != nil {
			if ctx.Err() != nil {
				// The store itself went away mid-batch; that is a
				// collaborator failure, not a per-record one.
				return nil, fmt.Errorf("bulk mutation aborted: %w", err)
			}
			outcome.Success = false
			outcome.Message = err.Error()
		} else if n, err := result.RowsAffected(); err == nil && n == 0 {
			outcome.Success = false
			outcome.Message = "organization no longer exists"
		}

		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
