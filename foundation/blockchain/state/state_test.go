package state_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/logger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func ifErrFailNow(t *testing.T, err error) {
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

// recorder captures the events raised by the state.
type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) ev(v string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, fmt.Sprintf(v, args...))
}

func (r *recorder) contains(s string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.msgs {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// =============================================================================

func Test_AppendExample(t *testing.T) {
	log, err := logger.New("TEST")
	ifErrFailNow(t, err)
	defer log.Sync()

	strg, err := memory.New()
	ifErrFailNow(t, err)

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
	}

	st, err := state.New(state.Config{
		Storage:    strg,
		Difficulty: 2,
		EvHandler:  ev,
	})
	ifErrFailNow(t, err)
	defer st.Shutdown()

	t.Log("Given the need to add a block to a new ledger.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen adding Alice->Bob 50 and Bob->Charlie 25 at difficulty 2.", testID)
		{
			if !st.Validate() {
				t.Fatalf("\t%s\tTest %d:\tShould start with a valid ledger.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould start with a valid ledger.", success, testID)

			out, err := st.Append([]database.Tx{
				database.NewTx(50, "Alice", "Bob"),
				database.NewTx(25, "Bob", "Charlie"),
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to append : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to append.", success, testID)

			if out.Number != 1 || out.Difficulty != 2 || !strings.HasPrefix(out.Block.CurrentHash, "00") {
				t.Fatalf("\t%s\tTest %d:\tShould mine block 1 with 2 leading zeros : got %d %s", failed, testID, out.Number, out.Block.CurrentHash)
			}
			t.Logf("\t%s\tTest %d:\tShould mine block 1 with 2 leading zeros.", success, testID)

			genesis := st.Snapshot().Blocks()[0]
			if out.Block.PrevHash != genesis.CurrentHash {
				t.Fatalf("\t%s\tTest %d:\tShould link to genesis.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould link to genesis.", success, testID)

			if !st.Validate() {
				t.Fatalf("\t%s\tTest %d:\tShould be valid.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be valid.", success, testID)

			// One write for the new ledger and one for the block.
			if strg.Writes() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould persist after the append : got %d writes", failed, testID, strg.Writes())
			}
			t.Logf("\t%s\tTest %d:\tShould persist after the append.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen adding a batch with an invalid first transaction.", testID)
		{
			_, err := st.Append([]database.Tx{
				database.NewTx(-5, "Alice", "Bob"),
			})

			var txe *database.TxError
			if !errors.As(err, &txe) || txe.Index != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould reject index 0 : got %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject index 0.", success, testID)

			if _, blocks := st.Difficulty(); blocks != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould keep 2 blocks : got %d", failed, testID, blocks)
			}
			t.Logf("\t%s\tTest %d:\tShould keep 2 blocks.", success, testID)
		}
	}
}

func Test_Difficulty(t *testing.T) {
	t.Log("Given the need to change the difficulty.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen requesting values in and out of range.", testID)
		{
			strg, err := memory.New()
			ifErrFailNow(t, err)

			st, err := state.New(state.Config{Storage: strg, Difficulty: 1})
			ifErrFailNow(t, err)

			for _, d := range []int{0, -1, 11} {
				_, err := st.SetDifficulty(d)

				var de *state.DifficultyError
				if !errors.As(err, &de) {
					t.Fatalf("\t%s\tTest %d:\tShould reject difficulty %d : got %v", failed, testID, d, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould reject values out of range.", success, testID)

			if diff, _ := st.Difficulty(); diff != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould keep difficulty 1 : got %d", failed, testID, diff)
			}
			t.Logf("\t%s\tTest %d:\tShould keep difficulty 1.", success, testID)

			old, err := st.SetDifficulty(3)
			if err != nil || old != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould move from 1 to 3 : got %d %v", failed, testID, old, err)
			}
			t.Logf("\t%s\tTest %d:\tShould move from 1 to 3.", success, testID)

			data, err := strg.Read()
			ifErrFailNow(t, err)
			if data.Difficulty != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould persist difficulty 3 : got %d", failed, testID, data.Difficulty)
			}
			t.Logf("\t%s\tTest %d:\tShould persist difficulty 3.", success, testID)

			lo, hi := st.DifficultyRange()
			if lo != 1 || hi != 10 {
				t.Fatalf("\t%s\tTest %d:\tShould default the range to 1..10 : got %d..%d", failed, testID, lo, hi)
			}
			t.Logf("\t%s\tTest %d:\tShould default the range to 1..10.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen constructing with a difficulty out of range.", testID)
		{
			strg, err := memory.New()
			ifErrFailNow(t, err)

			if _, err := state.New(state.Config{Storage: strg, Difficulty: 12}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject difficulty 12.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject difficulty 12.", success, testID)

			if _, err := state.New(state.Config{Difficulty: 1}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould require a storage.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould require a storage.", success, testID)
		}
	}
}

func Test_Startup(t *testing.T) {
	t.Log("Given the need to start from what is on disk.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the ledger file is corrupt.", testID)
		{
			path := filepath.Join(t.TempDir(), "blockchain.json")
			ifErrFailNow(t, os.WriteFile(path, []byte("{corrupt"), 0600))

			disk, err := storage.NewDisk(path)
			ifErrFailNow(t, err)

			var rec recorder
			st, err := state.New(state.Config{Storage: disk, Difficulty: 2, EvHandler: rec.ev})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould start a new ledger : %v", failed, testID, err)
			}

			if _, blocks := st.Difficulty(); blocks != 1 || !rec.contains("WARNING") {
				t.Fatalf("\t%s\tTest %d:\tShould warn and hold only genesis : got %d blocks", failed, testID, blocks)
			}
			t.Logf("\t%s\tTest %d:\tShould warn and hold only genesis.", success, testID)

			if _, err := disk.Read(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould replace the corrupt file : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the corrupt file.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the configured difficulty differs from the stored one.", testID)
		{
			strg, err := memory.New()
			ifErrFailNow(t, err)

			st, err := state.New(state.Config{Storage: strg, Difficulty: 1})
			ifErrFailNow(t, err)
			_, err = st.Append([]database.Tx{database.NewTx(1, "Alice", "Bob")})
			ifErrFailNow(t, err)

			st, err = state.New(state.Config{Storage: strg, Difficulty: 4})
			ifErrFailNow(t, err)

			diff, blocks := st.Difficulty()
			if diff != 4 || blocks != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould load 2 blocks at difficulty 4 : got %d at %d", failed, testID, blocks, diff)
			}
			t.Logf("\t%s\tTest %d:\tShould load 2 blocks at difficulty 4.", success, testID)

			data, err := strg.Read()
			ifErrFailNow(t, err)
			if data.Difficulty != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould persist difficulty 4 : got %d", failed, testID, data.Difficulty)
			}
			t.Logf("\t%s\tTest %d:\tShould persist difficulty 4.", success, testID)

			st, err = state.New(state.Config{Storage: strg})
			ifErrFailNow(t, err)
			if diff, _ := st.Difficulty(); diff != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the stored difficulty when none is configured : got %d", failed, testID, diff)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the stored difficulty when none is configured.", success, testID)
		}
	}
}

func Test_StoredDifficultyOutOfRange(t *testing.T) {
	t.Log("Given the need to reject a stored difficulty outside of the allowed range.")
	{
		for testID, d := range []int{0, -3, 11, 65} {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen the stored difficulty is %d.", testID, d)
				{
					chain := database.New(database.Config{Difficulty: 1})
					if _, err := chain.Append([]database.Tx{database.NewTx(1, "Alice", "Bob")}); err != nil {
						t.Fatalf("unable to append: %v", err)
					}

					data := database.NewChainData(chain)
					data.Difficulty = d

					strg, err := memory.New()
					ifErrFailNow(t, err)
					ifErrFailNow(t, strg.Write(data))

					var rec recorder
					st, err := state.New(state.Config{Storage: strg, EvHandler: rec.ev})
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould start a new ledger : %v", failed, testID, err)
					}

					diff, blocks := st.Difficulty()
					if diff != state.DefaultDifficulty || blocks != 1 || !rec.contains("WARNING") {
						t.Fatalf("\t%s\tTest %d:\tShould warn and start a new ledger at difficulty %d : got %d blocks at %d", failed, testID, state.DefaultDifficulty, blocks, diff)
					}
					t.Logf("\t%s\tTest %d:\tShould warn and start a new ledger at difficulty %d.", success, testID, state.DefaultDifficulty)

					done := make(chan error, 1)
					go func() {
						_, err := st.Append([]database.Tx{database.NewTx(1, "Alice", "Bob")})
						done <- err
					}()

					select {
					case err := <-done:
						ifErrFailNow(t, err)
					case <-time.After(10 * time.Second):
						t.Fatalf("\t%s\tTest %d:\tShould finish mining.", failed, testID)
					}

					vr := st.VerifyChain()
					if vr.Err != nil || vr.Blocks != 2 {
						t.Fatalf("\t%s\tTest %d:\tShould hold 2 valid blocks : got %d %v", failed, testID, vr.Blocks, vr.Err)
					}
					t.Logf("\t%s\tTest %d:\tShould mine a valid block.", success, testID)
				}
			}

			t.Run(fmt.Sprintf("difficulty%d", d), f)
		}
	}
}

func Test_VerifyChain(t *testing.T) {
	t.Log("Given the need to report what the chain was validated with.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the difficulty is raised past a mined block.", testID)
		{
			strg, err := memory.New()
			ifErrFailNow(t, err)

			st, err := state.New(state.Config{Storage: strg, Difficulty: 1})
			ifErrFailNow(t, err)

			vr := st.VerifyChain()
			if vr.Err != nil || vr.Difficulty != 1 || vr.Blocks != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould report a valid chain at difficulty 1 : got %+v", failed, testID, vr)
			}
			t.Logf("\t%s\tTest %d:\tShould report a valid chain at difficulty 1.", success, testID)

			for {
				out, err := st.Append([]database.Tx{database.NewTx(1, "Alice", "Bob")})
				ifErrFailNow(t, err)
				if !strings.HasPrefix(out.Block.CurrentHash, "0000000000") {
					break
				}
			}

			_, err = st.SetDifficulty(10)
			ifErrFailNow(t, err)

			vr = st.VerifyChain()
			if !errors.Is(vr.Err, database.ErrDifficultyNotMet) || vr.Difficulty != 10 {
				t.Fatalf("\t%s\tTest %d:\tShould report the failure at difficulty 10 : got %+v", failed, testID, vr)
			}
			t.Logf("\t%s\tTest %d:\tShould report the failure at difficulty 10.", success, testID)
		}
	}
}

func Test_WriteFailure(t *testing.T) {
	t.Log("Given the need to keep working when storage fails.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen every write fails.", testID)
		{
			strg, err := memory.New()
			ifErrFailNow(t, err)

			var rec recorder
			st, err := state.New(state.Config{Storage: strg, Difficulty: 1, EvHandler: rec.ev})
			ifErrFailNow(t, err)

			strg.FailWrites(errors.New("disk full"))

			out, err := st.Append([]database.Tx{database.NewTx(1, "Alice", "Bob")})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould keep the block in memory : %v", failed, testID, err)
			}
			if _, blocks := st.Difficulty(); blocks != 2 || out.Number != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould hold 2 blocks : got %d", failed, testID, blocks)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the block in memory.", success, testID)

			if !rec.contains("ERROR: unable to write ledger") {
				t.Fatalf("\t%s\tTest %d:\tShould report the write failure.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report the write failure.", success, testID)
		}
	}
}

func Test_ConcurrentAppend(t *testing.T) {
	t.Log("Given the need to append from many goroutines.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen 10 goroutines append at once.", testID)
		{
			strg, err := memory.New()
			ifErrFailNow(t, err)

			st, err := state.New(state.Config{Storage: strg, Difficulty: 1})
			ifErrFailNow(t, err)

			const g = 10

			var wg sync.WaitGroup
			wg.Add(g)
			for i := 0; i < g; i++ {
				i := i
				go func() {
					defer wg.Done()
					st.Append([]database.Tx{database.NewTx(float64(i+1), "Alice", "Bob")})
					st.Validate()
				}()
			}
			wg.Wait()

			if _, blocks := st.Difficulty(); blocks != g+1 {
				t.Fatalf("\t%s\tTest %d:\tShould hold %d blocks : got %d", failed, testID, g+1, blocks)
			}
			t.Logf("\t%s\tTest %d:\tShould hold %d blocks.", success, testID, g+1)

			if err := st.Verify(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be a valid chain : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be a valid chain.", success, testID)
		}
	}
}
