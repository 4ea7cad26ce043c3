/*
Package volume manages the lifecycle of local, directory-backed volumes.

A volume is a directory under <root>/volumes tracked by a record in a
storage.Store. The Manager is the only component that writes those records
and the only one that creates or deletes volume directories. Every name and
every stored path passes through package validation before it reaches the
filesystem.

# Architecture

	┌──────────────┐   CreateRequest / name   ┌───────────────────────────┐
	│  cmd/vordr   │ ───────────────────────▶ │          Manager          │
	└──────────────┘ ◀─────────────────────── │  • validates identifiers  │
	                     record / error       │  • orders checks vs. I/O  │
	                                          └──────┬──────────────┬─────┘
	                                                 │              │
	                                                 ▼              ▼
	                                   ┌─────────────────┐  ┌───────────────┐
	                                   │   LocalDriver   │  │ storage.Store │
	                                   │  mkdir / rm -r  │  │ unique insert │
	                                   └─────────────────┘  └───────────────┘

The driver tag on a record is free-form ("local" by default). Every volume is
realised by LocalDriver whatever its tag.

# Create

 1. ValidateIdentifier(name), failure is ErrInvalidName
 2. Store lookup by name, a hit is ErrAlreadyExists before touching disk
 3. MkdirAll(<root>/volumes) and canonicalize it (ErrRootUnresolvable)
 4. Exclusive Mkdir(<root>/volumes/<name>); an existing entry is ErrAlreadyExists
 5. Canonicalize the mountpoint and check it sits inside the root
    (ErrMountpointEscaped, directory left on disk)
 6. Encode labels and options as JSON objects
 7. Insert the record; the store enforces name uniqueness

If the insert fails the empty directory created in step 4 is removed again
(non-recursively), so a lost race never leaves a second directory behind.

# Remove

 1. Validate the name and fetch the record (ErrNotFound)
 2. Lexical ".." check on the stored mountpoint
 3. Lstat symlink check
 4. Canonical containment in the volumes root (ErrMountpointEscaped)
 5. Mark the record "removing"
 6. Lstat symlink check again, then os.RemoveAll
 7. Delete the record by id

Directory and record deletion are not atomic. A record left in "removing" with
no directory is the recoverable half-removed state; it shows up in Inspect and
List with State "removing", and running Remove again finishes it.

# Reads

List and Inspect never touch the filesystem. Inspect parses the stored
labels and options back into maps. Text that fails to parse is shown as an
empty map and logged at warn level with the field name, so it can be told
apart from a volume that simply has no labels.

# Usage

	store, err := storage.NewBoltStore("/var/lib/vordr/vordr.db")
	if err != nil {
		return err
	}
	defer store.Close()

	mgr, err := volume.NewManager(volume.Config{Root: "/var/lib/vordr", Store: store})
	if err != nil {
		return err
	}

	vol, err := mgr.Create(volume.CreateRequest{
		Name:   "postgres-data",
		Labels: []string{"app=database"},
	})

	mount, err := mgr.MountSpec("postgres-data", "/var/lib/postgresql/data", false)
	// mount is a runtime-spec bind mount ready for an OCI config

Prune exists as a placeholder and never removes anything. Deciding that a
volume is unused needs reference counting against its consumers.
*/
package volume
