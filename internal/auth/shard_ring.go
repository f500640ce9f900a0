package auth

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"strconv"
)

// DefaultShardPoints 每个分片在环上的虚拟点数
const DefaultShardPoints = 64

type ringPoint struct {
	hash  uint64
	shard string
}

// ShardRing 把 token 缓存 key 分散到若干 Redis key 前缀上。
// 分片变化时只有相邻区间的 token 需要重新解析。构造后只读。
type ShardRing struct {
	points []ringPoint
	shards []string
}

// NewShardRing 去重后建环；没有配置分片时所有 key 落在 "default"
func NewShardRing(shards []string, pointsPerShard int) *ShardRing {
	if pointsPerShard <= 0 {
		pointsPerShard = DefaultShardPoints
	}
	seen := make(map[string]bool, len(shards))
	r := &ShardRing{}
	for _, s := range shards {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		r.shards = append(r.shards, s)
		for i := 0; i < pointsPerShard; i++ {
			r.points = append(r.points, ringPoint{hash: hash64(s + "/" + strconv.Itoa(i)), shard: s})
		}
	}
	if len(r.shards) == 0 {
		r.shards = []string{"default"}
		r.points = []ringPoint{{hash: 0, shard: "default"}}
	}
	sort.Slice(r.points, func(i, j int) bool { return r.points[i].hash < r.points[j].hash })
	return r
}

// Shards 参与分片的名称，按配置顺序
func (r *ShardRing) Shards() []string {
	return append([]string(nil), r.shards...)
}

// Shard 顺时针找到第一个虚拟点
func (r *ShardRing) Shard(key string) string {
	h := hash64(key)
	i := sort.Search(len(r.points), func(i int) bool { return r.points[i].hash >= h })
	if i == len(r.points) {
		i = 0
	}
	return r.points[i].shard
}

func hash64(s string) uint64 {
	sum := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}
