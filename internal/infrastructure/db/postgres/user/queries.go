package user

const (
	userColumns = `id, uuid, external_id, display_name, email, role, password_hash, blocked, created_at, updated_at`

	SelectUsers = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id
		LIMIT 50 OFFSET ( ($1 - 1) * 50 )
	`
	SelectUserByID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE uuid = $1
	`
	SelectUserByEmail = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	SelectUserByExternalID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE external_id = $1
	`
	InsertUser = `
		INSERT INTO users (external_id, display_name, email, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns + `
	`
	UpdateExternalIDByUUID = `
		UPDATE users
		SET external_id = $1,
		    updated_at = now()
		WHERE uuid = $2
		RETURNING ` + userColumns + `
	`
	UpdateProfileByUUID = `
		UPDATE users
		SET display_name = $1,
		    updated_at = now()
		WHERE uuid = $2
		RETURNING ` + userColumns + `
	`
	UpdateBlockedByUUID = `
		UPDATE users
		SET blocked = $1,
		    updated_at = now()
		WHERE uuid = $2
		RETURNING ` + userColumns + `
	`
	UpdateRoleByUUID = `
		UPDATE users
		SET role = $1,
		    updated_at = now()
		WHERE uuid = $2
		RETURNING ` + userColumns + `
	`
	SelectIdByUUID = `SELECT id FROM users WHERE uuid = $1::uuid`
	DeleteUserByID = `
		DELETE FROM users
		WHERE id = $1
		RETURNING ` + userColumns + `
	`
)
