package mysql

const recordColumns = `id, owner_id, geohash, payload, created_at, updated_at`

const insertPropertySQL = `
INSERT INTO properties
  (id, owner_id, status, title, property_type, transaction_type, city,
   price_amount, lat, lon, geohash, payload, idempotency_key, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updatePropertySQL = `
UPDATE properties SET
  status           = ?,
  title            = ?,
  property_type    = ?,
  transaction_type = ?,
  city             = ?,
  price_amount     = ?,
  lat              = ?,
  lon              = ?,
  geohash          = ?,
  payload          = ?,
  updated_at       = ?
WHERE id = ?
`

const getPropertySQL = `SELECT ` + recordColumns + ` FROM properties WHERE id = ?`

const findByKeySQL = `SELECT ` + recordColumns + ` FROM properties WHERE owner_id = ? AND idempotency_key = ?`
