package storage

const schema = `
CREATE TABLE IF NOT EXISTS frames (
	frame 	INTEGER PRIMARY KEY,
	time 	REAL);
CREATE TABLE IF NOT EXISTS bodies (
	frame 	INTEGER,
	id 		INTEGER, -- index in the body set
	name 	TEXT,
	x 		REAL,
	y 		REAL,
	z 		REAL,
	vx 		REAL,
	vy 		REAL,
	vz 		REAL);
CREATE INDEX IF NOT EXISTS idx_frame ON bodies (frame, id);
CREATE INDEX IF NOT EXISTS idx_id ON bodies (id);
`

const (
	insertFrame = `INSERT INTO frames VALUES (?, ?);`
	insertBody  = `INSERT INTO bodies VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`

	queryTrajectory = `
SELECT b.frame, f.time, b.x, b.y, b.z, b.vx, b.vy, b.vz
FROM bodies b JOIN frames f ON f.frame = b.frame
WHERE b.id = ? ORDER BY b.frame ASC;`

	queryFrame = `
SELECT b.id, b.name, b.x, b.y, b.z, b.vx, b.vy, b.vz
FROM bodies b WHERE b.frame = ? ORDER BY b.id ASC;`

	queryAll = `
SELECT b.frame, f.time, b.id, b.name, b.x, b.y, b.z, b.vx, b.vy, b.vz
FROM bodies b JOIN frames f ON f.frame = b.frame
ORDER BY b.frame ASC, b.id ASC;`

	queryFrameCount = `SELECT COUNT(*) FROM frames;`
)
