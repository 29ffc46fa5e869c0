package trash

// Fake is an in-memory Service double recording every call instead of
// touching the filesystem.
type Fake struct {
	Calls   []string
	FailFor string
}

func (f *Fake) MoveToTrash(path string) (Result, error) {
	if f.FailFor != "" && path == f.FailFor {
		return Result{SrcPath: path, Success: false, Error: "fake trash failure"}, nil
	}
	f.Calls = append(f.Calls, path)
	return Result{SrcPath: path, Success: true}, nil
}
