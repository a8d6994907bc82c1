package repository

import (
	"context"
	"errors"

	"kyc-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kyc-service/pkg/xerrors"
)

type IdentityRepo struct {
	db *pgxpool.Pool
}

func NewIdentityRepo(db *pgxpool.Pool) *IdentityRepo {
	return &IdentityRepo{db: db}
}

// GetByUserID fetches the identity record for a user.
func (r *IdentityRepo) GetByUserID(ctx context.Context, userID string) (*domain.IdentityRecord, error) {
	var rec domain.IdentityRecord
	err := r.db.QueryRow(ctx, `
		SELECT user_id, aadhaar_number, pan_number, bank_account_number, bank_ifsc,
		       full_name, date_of_birth, gender, address, status, linkage_confirmed,
		       created_at, updated_at
		FROM identity_records
		WHERE user_id=$1
	`, userID).Scan(
		&rec.UserID, &rec.AadhaarNumber, &rec.PANNumber, &rec.BankAccountNumber, &rec.BankIFSC,
		&rec.FullName, &rec.DateOfBirth, &rec.Gender, &rec.Address, &rec.Status, &rec.LinkageConfirmed,
		&rec.CreatedAt, &rec.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}

	return &rec, nil
}

// UpsertAadhaar creates the record on first successful Aadhaar verification
// and refreshes the vendor attributes on repeats. Idempotent; status stays
// pending until the linkage check concludes.
func (r *IdentityRepo) UpsertAadhaar(ctx context.Context, userID string, attrs *domain.AadhaarAttributes) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO identity_records
			(user_id, aadhaar_number, full_name, date_of_birth, gender, address, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			aadhaar_number=EXCLUDED.aadhaar_number,
			full_name=EXCLUDED.full_name,
			date_of_birth=EXCLUDED.date_of_birth,
			gender=EXCLUDED.gender,
			address=EXCLUDED.address,
			updated_at=NOW()
	`, userID, attrs.MaskedNumber, attrs.FullName, attrs.DateOfBirth, attrs.Gender, attrs.Address, domain.KYCStatusPending)
	return err
}

// SetPAN stores the verified PAN on an existing record.
func (r *IdentityRepo) SetPAN(ctx context.Context, userID, panNumber string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE identity_records
		SET pan_number=$1, updated_at=NOW()
		WHERE user_id=$2
	`, panNumber, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// SetBankLinkage records the linkage outcome and moves status forward:
// verified when the vendor confirmed the link, rejected otherwise.
func (r *IdentityRepo) SetBankLinkage(ctx context.Context, userID, accountNumber, ifsc string, linked bool) error {
	status := domain.KYCStatusRejected
	if linked {
		status = domain.KYCStatusVerified
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE identity_records
		SET bank_account_number=$1, bank_ifsc=$2, linkage_confirmed=$3, status=$4, updated_at=NOW()
		WHERE user_id=$5
	`, accountNumber, ifsc, linked, status, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// InsertAuditLog records an action in the audit logs.
func (r *IdentityRepo) InsertAuditLog(ctx context.Context, log *domain.KYCAuditLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO kyc_audit_logs (id, user_id, action, actor, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
	`, log.ID, log.UserID, log.Action, log.Actor, log.Notes)
	return err
}

// GetAuditLogs fetches audit logs for a user.
func (r *IdentityRepo) GetAuditLogs(ctx context.Context, userID string) ([]domain.KYCAuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, action, actor, notes, created_at
		FROM kyc_audit_logs
		WHERE user_id=$1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.KYCAuditLog
	for rows.Next() {
		var l domain.KYCAuditLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.Actor, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}
