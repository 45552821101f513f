package natives_test

import (
	"testing"

	"github.com/mna/dpr/lang/natives"
	"github.com/mna/dpr/lang/value"
	"github.com/stretchr/testify/require"
)

func TestListBuildsInSourceOrder(t *testing.T) {
	reg := natives.New()
	fn, ok := reg.Lookup("$list")
	require.True(t, ok)

	var pool value.Pool
	args := []value.Value{value.IntValue(3), value.IntValue(2), value.IntValue(1)}
	got, err := fn(&pool, 3, args)
	require.NoError(t, err)

	obj := pool.Get(got.Handle())
	require.Equal(t, value.ListObj, obj.Kind)
	require.Equal(t, []value.Value{value.IntValue(1), value.IntValue(2), value.IntValue(3)}, obj.List)
}

func TestNewEmptyListOneArg(t *testing.T) {
	reg := natives.New()
	fn, _ := reg.Lookup("$new_empty_list")

	var pool value.Pool
	got, err := fn(&pool, 1, []value.Value{value.IntValue(3)})
	require.NoError(t, err)

	obj := pool.Get(got.Handle())
	require.Len(t, obj.List, 3)
	for _, v := range obj.List {
		require.True(t, v.IsNil())
	}
}

func TestNewEmptyListTwoArgs(t *testing.T) {
	reg := natives.New()
	fn, _ := reg.Lookup("$new_empty_list")

	var pool value.Pool
	got, err := fn(&pool, 2, []value.Value{value.IntValue(9), value.IntValue(2)})
	require.NoError(t, err)

	obj := pool.Get(got.Handle())
	require.Equal(t, []value.Value{value.IntValue(9), value.IntValue(9)}, obj.List)
}

func TestListGetAndSet(t *testing.T) {
	reg := natives.New()
	getFn, _ := reg.Lookup("$list->get")
	setFn, _ := reg.Lookup("$list->set")

	var pool value.Pool
	lv := pool.NewList([]value.Value{value.IntValue(10), value.IntValue(20)})

	got, err := getFn(&pool, 2, []value.Value{value.IntValue(1), lv})
	require.NoError(t, err)
	require.Equal(t, value.IntValue(20), got)

	setRet, err := setFn(&pool, 3, []value.Value{value.IntValue(99), value.IntValue(0), lv})
	require.NoError(t, err)
	require.Equal(t, value.IntValue(99), setRet)

	obj := pool.Get(lv.Handle())
	require.Equal(t, value.IntValue(99), obj.List[0])
}

func TestListGetOutOfRange(t *testing.T) {
	reg := natives.New()
	getFn, _ := reg.Lookup("$list->get")

	var pool value.Pool
	lv := pool.NewList([]value.Value{value.IntValue(1)})

	_, err := getFn(&pool, 2, []value.Value{value.IntValue(5), lv})
	require.Error(t, err)
}

func TestListPush(t *testing.T) {
	reg := natives.New()
	pushFn, ok := reg.Lookup("$list->push")
	require.True(t, ok, "$list->push must be registered even though the original never binds it")

	var pool value.Pool
	lv := pool.NewList([]value.Value{value.IntValue(1)})

	ret, err := pushFn(&pool, 2, []value.Value{value.IntValue(2), lv})
	require.NoError(t, err)
	require.True(t, ret.IsNil())

	obj := pool.Get(lv.Handle())
	require.Equal(t, []value.Value{value.IntValue(1), value.IntValue(2)}, obj.List)
}

func TestUnknownNativeNotFound(t *testing.T) {
	reg := natives.New()
	_, ok := reg.Lookup("$does_not_exist")
	require.False(t, ok)
}
