package app

import "github.com/padraicbc/racetiming/timing"

func (a *App) RegisterNextCar(ms int64, track timing.TrackID, entry timing.EntryID) error {
	return a.submit(timing.RegisterNextCar{At: at(ms), Track: track, Entry: entry})
}

func (a *App) Start(ms int64, track timing.TrackID) error {
	return a.submit(timing.Start{At: at(ms), Track: track})
}

// Stop finishes entry, or the longest running car when entry is empty. The
// result id is allocated here so that it survives any later replay.
func (a *App) Stop(ms int64, track timing.TrackID, entry timing.EntryID) (timing.ResultID, error) {
	id := a.newResultID()
	if err := a.submit(timing.Stop{At: at(ms), Track: track, Entry: entry, Result: id}); err != nil {
		return "", err
	}
	return id, nil
}

func (a *App) RedFlag(ms int64, track timing.TrackID) error {
	return a.submit(timing.RedFlag{At: at(ms), Track: track})
}

func (a *App) MarkPylonTouch(ms int64, track timing.TrackID, entry timing.EntryID) error {
	return a.submit(timing.MarkPylonTouch{At: at(ms), Track: track, Entry: entry})
}

func (a *App) RemovePylonTouch(ms int64, track timing.TrackID, entry timing.EntryID) error {
	return a.submit(timing.RemovePylonTouch{At: at(ms), Track: track, Entry: entry})
}

func (a *App) MarkDerailment(ms int64, track timing.TrackID, entry timing.EntryID) error {
	return a.submit(timing.MarkDerailment{At: at(ms), Track: track, Entry: entry})
}

func (a *App) RemoveDerailment(ms int64, track timing.TrackID, entry timing.EntryID) error {
	return a.submit(timing.RemoveDerailment{At: at(ms), Track: track, Entry: entry})
}

func (a *App) MarkDNF(ms int64, track timing.TrackID, entry timing.EntryID) (timing.ResultID, error) {
	id := a.newResultID()
	if err := a.submit(timing.MarkDNF{At: at(ms), Track: track, Entry: entry, Result: id}); err != nil {
		return "", err
	}
	return id, nil
}

func (a *App) MarkMissCourse(ms int64, track timing.TrackID, entry timing.EntryID) (timing.ResultID, error) {
	id := a.newResultID()
	if err := a.submit(timing.MarkMissCourse{At: at(ms), Track: track, Entry: entry, Result: id}); err != nil {
		return "", err
	}
	return id, nil
}

func (a *App) SetTrackRecordType(ms int64, track timing.TrackID, kind string) error {
	return a.submit(timing.SetTrackRecordType{At: at(ms), Track: track, RecordType: kind})
}

func (a *App) MarkDNFToRecord(ms int64, record timing.ResultID) error {
	return a.submit(timing.MarkDNFToRecord{At: at(ms), Record: record})
}

func (a *App) MarkMissCourseToRecord(ms int64, record timing.ResultID) error {
	return a.submit(timing.MarkMissCourseToRecord{At: at(ms), Record: record})
}

func (a *App) RemoveRecord(ms int64, record timing.ResultID) error {
	return a.submit(timing.RemoveRecord{At: at(ms), Record: record})
}

func (a *App) RecoveryRecord(ms int64, record timing.ResultID) error {
	return a.submit(timing.RecoveryRecord{At: at(ms), Record: record})
}

func (a *App) ChangeRecordPylonTouchCount(ms int64, record timing.ResultID, count int) error {
	return a.submit(timing.ChangeRecordPylonTouchCount{At: at(ms), Record: record, Count: count})
}

func (a *App) ChangeRecordDerailmentCount(ms int64, record timing.ResultID, count int) error {
	return a.submit(timing.ChangeRecordDerailmentCount{At: at(ms), Record: record, Count: count})
}

func (a *App) ChangeRecordType(ms int64, record timing.ResultID, kind string) error {
	return a.submit(timing.ChangeRecordType{At: at(ms), Record: record, RecordType: kind})
}
