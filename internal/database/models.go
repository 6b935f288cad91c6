package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Row types mapped by bun. Feature packages convert them into their own
// domain structs; nothing outside repositories should hold these.

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                      uuid.UUID  `bun:"id,pk,type:uuid"`
	Email                   string     `bun:"email,notnull,unique"`
	PasswordHash            string     `bun:"password_hash,notnull"`
	EmailVerified           bool       `bun:"email_verified,notnull"`
	EmailVerificationToken  *string    `bun:"email_verification_token"`
	EmailVerificationSentAt *time.Time `bun:"email_verification_sent_at"`
	FirstName               string     `bun:"first_name,notnull"`
	LastName                string     `bun:"last_name,notnull"`
	Age                     *int16     `bun:"age"`
	Gender                  string     `bun:"gender,notnull"`
	CreatedAt               time.Time  `bun:"created_at,notnull"`
	UpdatedAt               time.Time  `bun:"updated_at,notnull"`
}

type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rt"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID  `bun:"user_id,notnull,type:uuid"`
	TokenHash string     `bun:"token_hash,notnull,unique"`
	ExpiresAt time.Time  `bun:"expires_at,notnull"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
	RevokedAt *time.Time `bun:"revoked_at"`
}

type Stove struct {
	bun.BaseModel `bun:"table:stoves,alias:s"`

	ID        int64      `bun:"id,pk,autoincrement"`
	SerialID  string     `bun:"serial_id,notnull,unique"`
	Name      string     `bun:"name,notnull"`
	ClaimedAt *time.Time `bun:"claimed_at"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
}

type Cook struct {
	bun.BaseModel `bun:"table:cooks,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid,unique:cooks_stove_user"`
	StoveID   int64     `bun:"stove_id,notnull,unique:cooks_stove_user"`
	IsChief   bool      `bun:"is_chief,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}

type Dish struct {
	bun.BaseModel `bun:"table:dishes,alias:d"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull,unique"`
	Description string    `bun:"description,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

type DishOwner struct {
	bun.BaseModel `bun:"table:dish_owners,alias:own"`

	DishID int64     `bun:"dish_id,pk"`
	UserID uuid.UUID `bun:"user_id,pk,type:uuid"`
}

type Timing struct {
	bun.BaseModel `bun:"table:timings,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement"`
	DishID    int64     `bun:"dish_id,notnull"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type AtomicTiming struct {
	bun.BaseModel `bun:"table:atomic_timings,alias:atm"`

	ID        int64     `bun:"id,pk,autoincrement"`
	TimingID  int64     `bun:"timing_id,notnull"`
	Seconds   int       `bun:"seconds,notnull"`
	Power     int       `bun:"power,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// Models lists every table model in creation order.
func Models() []any {
	return []any{
		(*User)(nil),
		(*RefreshToken)(nil),
		(*Stove)(nil),
		(*Cook)(nil),
		(*Dish)(nil),
		(*DishOwner)(nil),
		(*Timing)(nil),
		(*AtomicTiming)(nil),
	}
}
