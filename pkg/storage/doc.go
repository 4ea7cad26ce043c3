/*
Package storage persists volume records.

The Store interface is the only persistence authority for volumes. Two
implementations are provided:

  - BoltStore keeps records in a single BoltDB file (go.etcd.io/bbolt).
  - MemStore keeps records in memory for tests and scoped, throwaway runs.

# Schema

BoltStore uses two buckets:

	Bucket: "volumes"       Key: volume.ID    Value: JSON-encoded types.Volume
	Bucket: "volume_names"  Key: volume.Name  Value: volume.ID

CreateVolume checks and writes both buckets inside one bolt.Update
transaction. BoltDB serialises writers, so two concurrent inserts of the same
name cannot both succeed. The loser gets ErrAlreadyExists. DeleteVolume
removes the record and its index entry in one transaction as well.

The database file is locked by the process that has it open. Other CLI
invocations wait up to five seconds for the lock before failing.

# Errors

	ErrNotFound       no record with that id or name
	ErrAlreadyExists  the name (or id) is already taken

Both are wrapped with the offending key and should be matched with errors.Is.

# Timestamps

CreatedAt is assigned by the store at insertion time, in UTC. Values passed
in by the caller are overwritten.
*/
package storage
