package snapshot

import (
	"bytes"
	"io"

	"github.com/minblock/qtipd/governance"
)

// SaveVotes writes path as an infinitynodersv.dat snapshot: the full
// proposal-votes map (spec.md §4.I).
func SaveVotes(path, networkID string, votes *governance.Votes) error {
	var buf bytes.Buffer

	full := votes.FullMap()
	if err := writeUint32(&buf, uint32(len(full))); err != nil {
		return err
	}
	for proposal, list := range full {
		if err := writeString(&buf, proposal); err != nil {
			return err
		}
		if err := writeUint32(&buf, uint32(len(list))); err != nil {
			return err
		}
		for _, vote := range list {
			if err := writeVote(&buf, vote); err != nil {
				return err
			}
		}
	}

	return writeFrame(path, MagicInfinityRSV, networkID, buf.Bytes())
}

// LoadVotes reads path and replaces votes' contents wholesale. A version
// mismatch returns ErrVersionMismatch (spec.md §4.I).
func LoadVotes(path, networkID string, votes *governance.Votes) error {
	payload, err := readFrame(path, MagicInfinityRSV, networkID)
	if err != nil {
		return err
	}
	r := bytes.NewReader(payload)

	proposalCount, err := readUint32(r)
	if err != nil {
		return err
	}
	out := make(map[string][]governance.Vote, proposalCount)
	for i := uint32(0); i < proposalCount; i++ {
		proposal, err := readString(r)
		if err != nil {
			return err
		}
		voteCount, err := readUint32(r)
		if err != nil {
			return err
		}
		list := make([]governance.Vote, voteCount)
		for j := uint32(0); j < voteCount; j++ {
			vote, err := readVote(r)
			if err != nil {
				return err
			}
			list[j] = vote
		}
		out[proposal] = list
	}
	votes.LoadMap(out)
	return nil
}

func writeVote(w io.Writer, v governance.Vote) error {
	if err := writeString(w, v.ProposalID); err != nil {
		return err
	}
	if err := writeString(w, v.VoterScript); err != nil {
		return err
	}
	if err := writeInt64(w, v.BurnHeight); err != nil {
		return err
	}
	var opinion byte
	if v.Opinion {
		opinion = 1
	}
	_, err := w.Write([]byte{opinion})
	return err
}

func readVote(r io.Reader) (governance.Vote, error) {
	var v governance.Vote
	var err error
	if v.ProposalID, err = readString(r); err != nil {
		return v, err
	}
	if v.VoterScript, err = readString(r); err != nil {
		return v, err
	}
	if v.BurnHeight, err = readInt64(r); err != nil {
		return v, err
	}
	var opinion [1]byte
	if _, err := io.ReadFull(r, opinion[:]); err != nil {
		return v, err
	}
	v.Opinion = opinion[0] == 1
	return v, nil
}
