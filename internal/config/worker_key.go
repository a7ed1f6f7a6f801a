package config

type WorkerKeyStruct struct {
	SubmittedSnapshotsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	SubmittedSnapshotsQueue: "submitted_snapshots_queue",
}
