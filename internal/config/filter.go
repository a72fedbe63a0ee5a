package config

// Filter narrows a job list to one job and/or one mode name. Empty filters
// match everything. Jobs left without modes are dropped; input order is kept.
func Filter(jobs []Job, job, mode string) []Job {
	if job == "" && mode == "" {
		return jobs
	}
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if job != "" && j.Name != job {
			continue
		}
		var modes []Mode
		for _, m := range j.Modes {
			if mode == "" || m.Name == mode {
				modes = append(modes, m)
			}
		}
		if len(modes) == 0 {
			continue
		}
		out = append(out, Job{Name: j.Name, Modes: modes})
	}
	return out
}

// Pairs counts the job/mode pairs in a job list.
func Pairs(jobs []Job) int {
	n := 0
	for _, j := range jobs {
		n += len(j.Modes)
	}
	return n
}
